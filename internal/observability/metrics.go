package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the QC
// pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Per-run dataset metrics.
	StationsProcessed prometheus.Histogram
	MissingTimestamps prometheus.Counter

	// Check metrics.
	ValuesChecked prometheus.Counter
	ValuesFlagged *prometheus.CounterVec // labels: check, obstype

	// Outlier publishing metrics.
	OutliersPublished prometheus.Counter

	// Land-cover lookup metrics.
	LandcoverRequests *prometheus.CounterVec // labels: outcome={success,error,unknown}
	LandcoverEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "runs_total",
			Help:      "Completed QC pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "station_qc",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete ingest-check-export cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station_qc",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		StationsProcessed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "station_qc",
			Name:      "stations_processed",
			Help:      "Number of stations per ingested dataset.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		MissingTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "missing_timestamps_total",
			Help:      "Timestamps inserted by reconciliation.",
		}),
		ValuesChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "values_checked_total",
			Help:      "Observation values run through at least one check.",
		}),
		ValuesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "values_flagged_total",
			Help:      "Values rejected, by check and obstype.",
		}, []string{"check", "obstype"}),
		OutliersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "outliers_published_total",
			Help:      "Outlier events published to the alerting topic.",
		}),
		LandcoverRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station_qc",
			Name:      "landcover_requests_total",
			Help:      "Land-cover lookups by outcome.",
		}, []string{"outcome"}),
		LandcoverEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station_qc",
			Name:      "landcover_enabled",
			Help:      "1 when land-cover enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
		m.StationsProcessed,
		m.MissingTimestamps,
		m.ValuesChecked,
		m.ValuesFlagged,
		m.OutliersPublished,
		m.LandcoverRequests,
		m.LandcoverEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "station_qc", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "station_qc", Name: "run_duration_seconds"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "station_qc", Name: "pipeline_running"}),
		StationsProcessed: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "station_qc", Name: "stations_processed"}),
		MissingTimestamps: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "station_qc", Name: "missing_timestamps_total"}),
		ValuesChecked:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "station_qc", Name: "values_checked_total"}),
		ValuesFlagged:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "station_qc", Name: "values_flagged_total"}, []string{"check", "obstype"}),
		OutliersPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "station_qc", Name: "outliers_published_total"}),
		LandcoverRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "station_qc", Name: "landcover_requests_total"}, []string{"outcome"}),
		LandcoverEnabled:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "station_qc", Name: "landcover_enabled"}),
	}
}
