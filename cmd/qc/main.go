// Command qc runs a single quality-control cycle and prints the run report.
// It reads the same environment variables as the qcd service; flags override
// the most common ones for ad-hoc runs.
//
// Usage:
//
//	qc --input data/vlinder_2022.csv --metadata data/stations.csv --output out/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/station-data-qc/internal/adapter/csvfile"
	"github.com/couchcryptid/station-data-qc/internal/adapter/landcover"
	"github.com/couchcryptid/station-data-qc/internal/adapter/postgres"
	"github.com/couchcryptid/station-data-qc/internal/config"
	"github.com/couchcryptid/station-data-qc/internal/domain"
	"github.com/couchcryptid/station-data-qc/internal/observability"
	"github.com/couchcryptid/station-data-qc/internal/pipeline"
	"github.com/couchcryptid/station-data-qc/internal/qc"
)

type options struct {
	EnvFile  string `long:"env-file" description:"load environment variables from this file first"`
	Input    string `short:"i" long:"input" description:"raw observation file (overrides INPUT_DATA_FILE)"`
	Metadata string `short:"m" long:"metadata" description:"station metadata file (overrides INPUT_METADATA_FILE)"`
	Output   string `short:"o" long:"output" description:"export folder (overrides OUTPUT_FOLDER)"`
	Settings string `long:"settings" description:"QC threshold file (overrides QC_SETTINGS_FILE)"`
	JSON     bool   `long:"json" description:"print the full run report as JSON"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			fmt.Fprintf(os.Stderr, "loading %s: %v\n", opts.EnvFile, err)
			os.Exit(1)
		}
	}
	applyOverrides(opts)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	settings, err := qc.LoadSettings(cfg.QCSettingsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qc settings: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestor, closeIngestor, err := buildIngestor(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestor: %v\n", err)
		os.Exit(1)
	}
	if closeIngestor != nil {
		defer closeIngestor()
	}

	p := pipeline.New(pipeline.Options{
		Ingestor:      ingestor,
		Exporter:      csvfile.NewExporter(cfg.OutputFolder),
		Lookup:        buildLookup(cfg, logger),
		Settings:      settings,
		Obstypes:      cfg.Obstypes,
		EnabledChecks: cfg.EnabledChecks,
		Logger:        logger,
		Metrics:       metrics,
	})

	report, err := p.RunOnce(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "encoding report: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printReport(report)
}

// applyOverrides pushes flag values into the environment before config.Load
// reads it, so flags and env vars resolve through the same path.
func applyOverrides(opts options) {
	set := func(key, value string) {
		if value != "" {
			os.Setenv(key, value)
		}
	}
	set("INPUT_DATA_FILE", opts.Input)
	set("INPUT_METADATA_FILE", opts.Metadata)
	set("OUTPUT_FOLDER", opts.Output)
	set("QC_SETTINGS_FILE", opts.Settings)
}

func buildIngestor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Ingestor, func(), error) {
	if cfg.DBConnString != "" {
		pg, err := postgres.NewIngestor(ctx, cfg.DBConnString, cfg.DBTable, cfg.DBWindow, logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	ing := csvfile.NewIngestor(cfg.InputDataFile, logger)
	if cfg.InputMetadataFile == "" {
		return ing, nil, nil
	}
	return csvfile.NewMetadataIngestor(ing, cfg.InputMetadataFile, logger), nil, nil
}

func buildLookup(cfg *config.Config, logger *slog.Logger) domain.LandcoverLookup {
	if !cfg.LandcoverEnabled {
		return nil
	}
	client := landcover.NewClient(cfg.LandcoverURL, cfg.LandcoverTimeout, logger)
	return landcover.NewCachedLookup(client, cfg.LandcoverCacheSize)
}

func printReport(report *pipeline.RunReport) {
	fmt.Printf("Run finished in %s\n", report.FinishedAt.Sub(report.StartedAt))
	fmt.Printf("Stations:           %d (%s)\n", report.Stations, strings.Join(report.StationNames, ", "))
	fmt.Printf("Missing timestamps: %d\n", report.MissingTimestamps)
	fmt.Printf("Outliers:           %d\n", report.Outliers)
	fmt.Printf("Export:             %s\n", report.ExportPath)

	for obstype, sum := range report.Summaries {
		fmt.Printf("\n%s: n=%d absent=%d mean=%.2f std=%.2f min=%.2f max=%.2f\n",
			obstype, sum.Count, sum.Absent, sum.Mean, sum.StdDev, sum.Min, sum.Max)
		printRecords(report.QCStats[obstype])
	}
}

func printRecords(records [][]string) {
	for _, rec := range records {
		for i, cell := range rec {
			if i > 0 {
				fmt.Print("\t")
			}
			fmt.Print(cell)
		}
		fmt.Println()
	}
}
