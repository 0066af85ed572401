// Package config populates service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Ingestion. Exactly one source must be configured: a raw observation
	// file or a database connection.
	InputDataFile     string
	InputMetadataFile string
	DBConnString      string
	DBTable           string
	DBWindow          time.Duration

	// Export.
	OutputFolder string

	// QC scope.
	Obstypes       []domain.Obstype
	EnabledChecks  []string
	QCSettingsFile string

	// Service loop.
	RunInterval     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Outlier publishing.
	KafkaBrokers      []string
	KafkaOutlierTopic string
	KafkaEnabled      bool

	// Land-cover enrichment.
	LandcoverURL       string
	LandcoverEnabled   bool
	LandcoverTimeout   time.Duration
	LandcoverCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	landcoverTimeout, err := parseDuration("LANDCOVER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	dbWindow, err := parseDuration("DB_WINDOW", "24h")
	if err != nil {
		return nil, err
	}

	obstypes, err := parseObstypes(envOrDefault("OBSTYPES", "temp,humidity"))
	if err != nil {
		return nil, err
	}

	landcoverURL := os.Getenv("LANDCOVER_URL")
	landcoverEnabled := landcoverURL != ""
	if v := os.Getenv("LANDCOVER_ENABLED"); v != "" {
		landcoverEnabled = v == "true"
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		InputDataFile:     os.Getenv("INPUT_DATA_FILE"),
		InputMetadataFile: os.Getenv("INPUT_METADATA_FILE"),
		DBConnString:      os.Getenv("DB_CONN"),
		DBTable:           envOrDefault("DB_TABLE", "observations"),
		DBWindow:          dbWindow,

		OutputFolder: os.Getenv("OUTPUT_FOLDER"),

		Obstypes:       obstypes,
		EnabledChecks:  splitNonEmpty(os.Getenv("QC_CHECKS")),
		QCSettingsFile: os.Getenv("QC_SETTINGS_FILE"),

		RunInterval:     runInterval,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:      splitNonEmpty(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaOutlierTopic: envOrDefault("KAFKA_OUTLIER_TOPIC", "qc-outliers"),
		KafkaEnabled:      kafkaEnabled,

		LandcoverURL:       landcoverURL,
		LandcoverEnabled:   landcoverEnabled,
		LandcoverTimeout:   landcoverTimeout,
		LandcoverCacheSize: parseLandcoverCacheSize(),
	}

	if cfg.InputDataFile == "" && cfg.DBConnString == "" {
		return nil, errors.New("either INPUT_DATA_FILE or DB_CONN is required")
	}
	if cfg.InputDataFile != "" && cfg.DBConnString != "" {
		return nil, errors.New("INPUT_DATA_FILE and DB_CONN are mutually exclusive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.LandcoverEnabled && cfg.LandcoverURL == "" {
		return nil, errors.New("LANDCOVER_ENABLED is true but LANDCOVER_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseObstypes(raw string) ([]domain.Obstype, error) {
	var out []domain.Obstype
	for _, name := range splitNonEmpty(raw) {
		ot, err := domain.ParseObstype(name)
		if err != nil {
			return nil, fmt.Errorf("OBSTYPES: %w", err)
		}
		out = append(out, ot)
	}
	if len(out) == 0 {
		return nil, errors.New("OBSTYPES must name at least one observation type")
	}
	return out, nil
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLandcoverCacheSize() int {
	if s := os.Getenv("LANDCOVER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
