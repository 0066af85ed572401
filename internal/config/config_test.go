package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/observations.csv", cfg.InputDataFile)
	assert.Equal(t, "observations", cfg.DBTable)
	assert.Equal(t, 24*time.Hour, cfg.DBWindow)
	assert.Equal(t, []domain.Obstype{domain.ObstypeTemp, domain.ObstypeHumidity}, cfg.Obstypes)
	assert.Empty(t, cfg.EnabledChecks)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "qc-outliers", cfg.KafkaOutlierTopic)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.LandcoverEnabled)
	assert.Equal(t, 5*time.Second, cfg.LandcoverTimeout)
	assert.Equal(t, 1000, cfg.LandcoverCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("INPUT_METADATA_FILE", "/data/metadata.csv")
	t.Setenv("OUTPUT_FOLDER", "/out")
	t.Setenv("OBSTYPES", "temp,humidity,wind_speed")
	t.Setenv("QC_CHECKS", "gross_value,step")
	t.Setenv("QC_SETTINGS_FILE", "/etc/qc.json")
	t.Setenv("RUN_INTERVAL", "15m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_OUTLIER_TOPIC", "custom-outliers")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("LANDCOVER_URL", "http://lcz.internal")
	t.Setenv("LANDCOVER_TIMEOUT", "10s")
	t.Setenv("LANDCOVER_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/metadata.csv", cfg.InputMetadataFile)
	assert.Equal(t, "/out", cfg.OutputFolder)
	assert.Equal(t, []domain.Obstype{
		domain.ObstypeTemp, domain.ObstypeHumidity, domain.ObstypeWindSpeed,
	}, cfg.Obstypes)
	assert.Equal(t, []string{"gross_value", "step"}, cfg.EnabledChecks)
	assert.Equal(t, "/etc/qc.json", cfg.QCSettingsFile)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-outliers", cfg.KafkaOutlierTopic)
	assert.True(t, cfg.KafkaEnabled)
	assert.True(t, cfg.LandcoverEnabled)
	assert.Equal(t, 10*time.Second, cfg.LandcoverTimeout)
	assert.Equal(t, 500, cfg.LandcoverCacheSize)
}

func TestLoad_RequiresASource(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_DATA_FILE or DB_CONN")
}

func TestLoad_SourcesAreExclusive(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("DB_CONN", "postgres://localhost/obs")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeRunInterval(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("RUN_INTERVAL", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_INTERVAL")
}

func TestLoad_UnknownObstype(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("OBSTYPES", "temp,banana")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")
}

func TestLoad_EmptyObstypes(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("OBSTYPES", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OBSTYPES")
}

func TestLoad_LandcoverURLImpliesEnabled(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("LANDCOVER_URL", "http://lcz.internal")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.LandcoverEnabled)
}

func TestLoad_LandcoverExplicitlyDisabled(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("LANDCOVER_URL", "http://lcz.internal")
	t.Setenv("LANDCOVER_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.LandcoverEnabled)
}

func TestLoad_LandcoverEnabledWithoutURL(t *testing.T) {
	t.Setenv("INPUT_DATA_FILE", "/data/observations.csv")
	t.Setenv("LANDCOVER_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LANDCOVER_URL")
}
