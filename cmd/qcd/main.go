// Command qcd runs the quality-control pipeline as a long-lived service:
// ingest on an interval, check, export, publish outliers, and expose health
// and run stats over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/station-data-qc/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/station-data-qc/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/station-data-qc/internal/adapter/kafka"
	"github.com/couchcryptid/station-data-qc/internal/adapter/landcover"
	"github.com/couchcryptid/station-data-qc/internal/adapter/postgres"
	"github.com/couchcryptid/station-data-qc/internal/config"
	"github.com/couchcryptid/station-data-qc/internal/domain"
	"github.com/couchcryptid/station-data-qc/internal/observability"
	"github.com/couchcryptid/station-data-qc/internal/pipeline"
	"github.com/couchcryptid/station-data-qc/internal/qc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	settings, err := qc.LoadSettings(cfg.QCSettingsFile)
	if err != nil {
		logger.Error("failed to load qc settings", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestor, closeIngestor, err := buildIngestor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build ingestor", "error", err)
		os.Exit(1)
	}

	lookup := buildLookup(cfg, metrics, logger)

	var publisher pipeline.OutlierPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("outlier publishing enabled", "topic", cfg.KafkaOutlierTopic)
	} else {
		logger.Info("outlier publishing disabled")
	}

	p := pipeline.New(pipeline.Options{
		Ingestor:      ingestor,
		Exporter:      buildExporter(cfg),
		Publisher:     publisher,
		Lookup:        lookup,
		Settings:      settings,
		Obstypes:      cfg.Obstypes,
		EnabledChecks: cfg.EnabledChecks,
		Interval:      cfg.RunInterval,
		Logger:        logger,
		Metrics:       metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if closeIngestor != nil {
		closeIngestor()
	}

	logger.Info("shutdown complete")
}

func buildIngestor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Ingestor, func(), error) {
	if cfg.DBConnString != "" {
		pg, err := postgres.NewIngestor(ctx, cfg.DBConnString, cfg.DBTable, cfg.DBWindow, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("ingesting from database", "table", cfg.DBTable, "window", cfg.DBWindow)
		return pg, pg.Close, nil
	}

	logger.Info("ingesting from file", "path", cfg.InputDataFile)
	ing := csvfile.NewIngestor(cfg.InputDataFile, logger)
	if cfg.InputMetadataFile == "" {
		return ing, nil, nil
	}
	return csvfile.NewMetadataIngestor(ing, cfg.InputMetadataFile, logger), nil, nil
}

func buildExporter(cfg *config.Config) pipeline.Exporter {
	return csvfile.NewExporter(cfg.OutputFolder)
}

func buildLookup(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.LandcoverLookup {
	if !cfg.LandcoverEnabled {
		metrics.LandcoverEnabled.Set(0)
		logger.Info("landcover enrichment disabled")
		return nil
	}
	metrics.LandcoverEnabled.Set(1)
	logger.Info("landcover enrichment enabled",
		"url", cfg.LandcoverURL, "cache_size", cfg.LandcoverCacheSize, "timeout", cfg.LandcoverTimeout)
	client := landcover.NewClient(cfg.LandcoverURL, cfg.LandcoverTimeout, logger)
	return landcover.NewCachedLookup(client, cfg.LandcoverCacheSize)
}
