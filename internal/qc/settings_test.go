package qc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qc_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	assert.True(t, domain.IsAbsent(settings.IgnoreValue))
	assert.True(t, domain.IsAbsent(settings.ReplaceValue))

	for _, ot := range domain.AllObstypes {
		ots, ok := settings.PerObstype[ot]
		require.True(t, ok, "no settings for %s", ot)
		assert.NotNil(t, ots.GrossValue, "%s", ot)
		assert.NotNil(t, ots.Persistence, "%s", ot)
		assert.NotNil(t, ots.Step, "%s", ot)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		settings, err := LoadSettings("")
		require.NoError(t, err)
		assert.Equal(t, -15.0, settings.PerObstype[domain.ObstypeTemp].GrossValue.Min)
	})

	t.Run("file overrides obstype wholesale", func(t *testing.T) {
		path := writeSettingsFile(t, `{
			"obstypes": {
				"temp": {
					"gross_value": {"min": -20, "max": 45}
				}
			},
			"consistency": {"humidity_min": 5, "humidity_max": 99}
		}`)

		settings, err := LoadSettings(path)
		require.NoError(t, err)

		temp := settings.PerObstype[domain.ObstypeTemp]
		assert.Equal(t, -20.0, temp.GrossValue.Min)
		assert.Equal(t, 45.0, temp.GrossValue.Max)
		assert.Nil(t, temp.Persistence)

		assert.Equal(t, 5.0, settings.Consistency.HumidityMin)

		// Untouched obstypes keep their defaults.
		assert.Equal(t, 0.0, settings.PerObstype[domain.ObstypeHumidity].GrossValue.Min)
	})

	t.Run("unknown obstype", func(t *testing.T) {
		path := writeSettingsFile(t, `{"obstypes": {"banana": {}}}`)
		_, err := LoadSettings(path)
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeSettingsFile(t, `{`)
		_, err := LoadSettings(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}
