// Package pipeline orchestrates one QC cycle: ingest, reconcile, check,
// export, publish outliers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-data-qc/internal/domain"
	"github.com/couchcryptid/station-data-qc/internal/observability"
	"github.com/couchcryptid/station-data-qc/internal/qc"
)

// Ingestor produces the normalized observation table for one run.
type Ingestor interface {
	Ingest(ctx context.Context) (domain.IngestTable, error)
}

// Exporter writes the labelled dataset and returns the written path.
type Exporter interface {
	Export(ds *domain.Dataset) (string, error)
}

// OutlierPublisher delivers the run's rejected observations downstream.
type OutlierPublisher interface {
	PublishBatch(ctx context.Context, events []domain.OutlierEvent) error
}

// RunReport summarizes one completed pipeline run.
type RunReport struct {
	StartedAt         time.Time                         `json:"started_at"`
	FinishedAt        time.Time                         `json:"finished_at"`
	Stations          int                               `json:"stations"`
	StationNames      []string                          `json:"station_names"`
	MissingTimestamps int                               `json:"missing_timestamps"`
	Outliers          int                               `json:"outliers"`
	ExportPath        string                            `json:"export_path"`
	Summaries         map[domain.Obstype]domain.Summary `json:"summaries"`
	QCStats           map[domain.Obstype][][]string     `json:"qc_stats"`
}

// Options carries the pipeline's collaborators and run parameters.
type Options struct {
	Ingestor  Ingestor
	Exporter  Exporter
	Publisher OutlierPublisher       // nil disables publishing
	Lookup    domain.LandcoverLookup // nil disables enrichment

	Settings      qc.Settings
	Obstypes      []domain.Obstype
	EnabledChecks []string
	Interval      time.Duration

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock // nil means real time
}

// Pipeline runs the ingest-check-export cycle, once or on an interval.
type Pipeline struct {
	opts  Options
	codes domain.LabelCodes
	clock clockwork.Clock
	ready atomic.Bool

	mu   sync.Mutex
	last *RunReport
}

// New creates a Pipeline from its options.
func New(opts Options) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		opts:  opts,
		codes: domain.DefaultLabelCodes(),
		clock: clock,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// run, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent successful run, or nil.
func (p *Pipeline) LastReport() *RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run executes RunOnce on the configured interval until the context is
// cancelled. Run failures are logged and the loop continues; a dataset that
// is bad this hour may be fine the next.
func (p *Pipeline) Run(ctx context.Context) error {
	p.opts.Logger.Info("pipeline started", "interval", p.opts.Interval, "obstypes", p.opts.Obstypes)
	p.opts.Metrics.PipelineRunning.Set(1)
	defer p.opts.Metrics.PipelineRunning.Set(0)

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.opts.Logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.opts.Logger.Error("pipeline run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.opts.Logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.opts.Interval):
		}
	}
}

// RunOnce executes a single ingest-check-export cycle.
func (p *Pipeline) RunOnce(ctx context.Context) (*RunReport, error) {
	start := p.clock.Now()

	report, err := p.runCycle(ctx, start)
	if err != nil {
		p.opts.Metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	p.opts.Metrics.RunsTotal.WithLabelValues("success").Inc()
	p.opts.Metrics.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	p.ready.Store(true)

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	p.opts.Logger.Info("run completed",
		"stations", report.Stations,
		"outliers", report.Outliers,
		"export_path", report.ExportPath,
	)
	return report, nil
}

func (p *Pipeline) runCycle(ctx context.Context, start time.Time) (*RunReport, error) {
	table, err := p.opts.Ingestor.Ingest(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingesting observations: %w", err)
	}

	ds, err := domain.BuildDataset(table, p.opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("building dataset: %w", err)
	}
	p.opts.Metrics.StationsProcessed.Observe(float64(len(ds.Stations())))

	domain.EnrichWithLandcover(ctx, ds, p.lookup(), p.opts.Logger)

	report := &RunReport{
		StartedAt: start,
		Stations:  len(ds.Stations()),
		Summaries: make(map[domain.Obstype]domain.Summary),
		QCStats:   make(map[domain.Obstype][][]string),
	}
	for _, st := range ds.Stations() {
		report.StationNames = append(report.StationNames, st.Name)
	}

	for _, obstype := range p.opts.Obstypes {
		checks, err := p.checksFor(obstype)
		if err != nil {
			return nil, err
		}
		p.opts.Metrics.ValuesChecked.Add(float64(presentValues(ds, obstype)))
		ds.ApplyQualityControl(obstype, checks, p.opts.Logger)
		p.recordCheckMetrics(ds, obstype, checks)
	}
	report.MissingTimestamps = p.countMissing(ds)

	path, err := p.opts.Exporter.Export(ds)
	if err != nil {
		return nil, fmt.Errorf("exporting dataset: %w", err)
	}
	report.ExportPath = path

	outliers, err := p.collectAndPublish(ctx, ds)
	if err != nil {
		return nil, err
	}
	report.Outliers = outliers

	for _, obstype := range p.opts.Obstypes {
		// Zero-count summaries carry NaN moments, which JSON cannot encode.
		if sum := ds.Summarize(obstype); sum.Count > 0 {
			report.Summaries[obstype] = sum
		}
		stats, err := ds.QCStats(obstype, nil)
		if err != nil {
			return nil, fmt.Errorf("computing qc stats: %w", err)
		}
		report.QCStats[obstype] = stats.Records()
	}

	report.FinishedAt = p.clock.Now()
	return report, nil
}

// checksFor assembles the enabled checks for one obstype. The composite
// consistency check only applies to temperature and is dropped elsewhere.
func (p *Pipeline) checksFor(obstype domain.Obstype) ([]domain.NamedCheck, error) {
	checks, err := qc.Checks(p.opts.Settings, p.opts.EnabledChecks)
	if err != nil {
		return nil, err
	}
	if obstype == domain.ObstypeTemp {
		return checks, nil
	}
	var out []domain.NamedCheck
	for _, c := range checks {
		if c.Name != qc.CheckConsistency {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Pipeline) collectAndPublish(ctx context.Context, ds *domain.Dataset) (int, error) {
	total := 0
	var events []domain.OutlierEvent
	for _, obstype := range p.opts.Obstypes {
		evs, err := domain.CollectOutliers(ds, obstype, p.codes)
		if err != nil {
			return 0, fmt.Errorf("collecting outliers: %w", err)
		}
		events = append(events, evs...)
	}
	total = len(events)

	if p.opts.Publisher == nil || total == 0 {
		return total, nil
	}
	if err := p.opts.Publisher.PublishBatch(ctx, events); err != nil {
		return 0, fmt.Errorf("publishing outliers: %w", err)
	}
	p.opts.Metrics.OutliersPublished.Add(float64(total))
	return total, nil
}

func (p *Pipeline) recordCheckMetrics(ds *domain.Dataset, obstype domain.Obstype, checks []domain.NamedCheck) {
	for _, c := range checks {
		counts, err := domain.CheckLabelCounts(ds.Stations(), obstype, c.Name)
		if err != nil {
			continue
		}
		flagged := 0
		for label, n := range counts {
			if label.IsOutlier() {
				flagged += n
			}
		}
		if flagged > 0 {
			p.opts.Metrics.ValuesFlagged.WithLabelValues(c.Name, string(obstype)).Add(float64(flagged))
		}
	}
}

// countMissing totals the timestamps inserted by reconciliation, read off
// the first configured obstype's status column per station.
func (p *Pipeline) countMissing(ds *domain.Dataset) int {
	if len(p.opts.Obstypes) == 0 {
		return 0
	}
	counts, err := domain.CheckLabelCounts(ds.Stations(), p.opts.Obstypes[0], "status")
	if err != nil {
		return 0
	}
	n := counts[domain.LabelMissingTimestamp]
	p.opts.Metrics.MissingTimestamps.Add(float64(n))
	return n
}

// lookup wraps the configured land-cover lookup with request metrics.
func (p *Pipeline) lookup() domain.LandcoverLookup {
	if p.opts.Lookup == nil {
		return nil
	}
	return &meteredLookup{inner: p.opts.Lookup, metrics: p.opts.Metrics}
}

func presentValues(ds *domain.Dataset, obstype domain.Obstype) int {
	n := 0
	for _, st := range ds.Stations() {
		if s, ok := st.Series(obstype); ok {
			n += s.Len() - s.AbsentCount()
		}
	}
	return n
}

type meteredLookup struct {
	inner   domain.LandcoverLookup
	metrics *observability.Metrics
}

func (m *meteredLookup) Lookup(ctx context.Context, lat, lon float64) (string, error) {
	class, err := m.inner.Lookup(ctx, lat, lon)
	switch {
	case err != nil:
		m.metrics.LandcoverRequests.WithLabelValues("error").Inc()
	case class == domain.LandcoverUnknown:
		m.metrics.LandcoverRequests.WithLabelValues("unknown").Inc()
	default:
		m.metrics.LandcoverRequests.WithLabelValues("success").Inc()
	}
	return class, err
}
