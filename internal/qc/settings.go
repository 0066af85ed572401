package qc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// GrossValueSettings bounds a plausible reading. Bounds are inclusive: a
// value exactly at Min or Max passes.
type GrossValueSettings struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PersistenceSettings limits how long a value may repeat unchanged.
type PersistenceSettings struct {
	MaxRepetitions int `json:"max_repetitions"`
}

// StepSettings limits the absolute change between consecutive samples.
type StepSettings struct {
	MaxDelta float64 `json:"max_delta"`
}

// ConsistencySettings bounds the humidity reading a simultaneous temperature
// value is judged against. HumidityMin is exclusive, HumidityMax inclusive: a
// dry-bulb reading with relative humidity of exactly 0 comes from a stuck or
// disconnected sensor.
type ConsistencySettings struct {
	HumidityMin float64 `json:"humidity_min"`
	HumidityMax float64 `json:"humidity_max"`
}

// ObstypeSettings groups the per-check thresholds of one obstype. A nil
// entry means the check is not configured for that obstype and errors when
// applied to it.
type ObstypeSettings struct {
	GrossValue  *GrossValueSettings  `json:"gross_value,omitempty"`
	Persistence *PersistenceSettings `json:"persistence,omitempty"`
	Step        *StepSettings        `json:"step,omitempty"`
}

// Settings carries everything the check library needs. No ambient state: the
// caller constructs a Settings value and passes it into Checks explicitly.
type Settings struct {
	// IgnoreValue marks observations a check must skip ("not checked").
	// Defaults to the absent marker so values rejected by an earlier check
	// are skipped automatically.
	IgnoreValue float64

	// ReplaceValue is written over rejected observations. Defaults to the
	// absent marker.
	ReplaceValue float64

	PerObstype  map[domain.Obstype]ObstypeSettings
	Consistency ConsistencySettings
}

// DefaultSettings returns thresholds tuned for the urban station networks
// this pipeline was built around: metric units, 5-minute to hourly cadence.
func DefaultSettings() Settings {
	reps := func(n int) *PersistenceSettings { return &PersistenceSettings{MaxRepetitions: n} }
	return Settings{
		IgnoreValue:  domain.Absent(),
		ReplaceValue: domain.Absent(),
		Consistency:  ConsistencySettings{HumidityMin: 0, HumidityMax: 100},
		PerObstype: map[domain.Obstype]ObstypeSettings{
			domain.ObstypeTemp: {
				GrossValue:  &GrossValueSettings{Min: -15, Max: 39},
				Persistence: reps(5),
				Step:        &StepSettings{MaxDelta: 8},
			},
			domain.ObstypeRadiationTemp: {
				GrossValue:  &GrossValueSettings{Min: -30, Max: 60},
				Persistence: reps(5),
				Step:        &StepSettings{MaxDelta: 10},
			},
			domain.ObstypeHumidity: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 100},
				Persistence: reps(5),
				Step:        &StepSettings{MaxDelta: 15},
			},
			domain.ObstypePrecip: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 100},
				Persistence: reps(60),
				Step:        &StepSettings{MaxDelta: 50},
			},
			domain.ObstypePrecipSum: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 300},
				Persistence: reps(60),
				Step:        &StepSettings{MaxDelta: 100},
			},
			domain.ObstypeWindSpeed: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 50},
				Persistence: reps(5),
				Step:        &StepSettings{MaxDelta: 10},
			},
			domain.ObstypeWindGust: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 80},
				Persistence: reps(5),
				Step:        &StepSettings{MaxDelta: 20},
			},
			domain.ObstypeWindDirection: {
				GrossValue:  &GrossValueSettings{Min: 0, Max: 360},
				Persistence: reps(12),
				// Direction wraps at north, a large apparent jump is legal.
				Step: &StepSettings{MaxDelta: 360},
			},
			domain.ObstypePressure: {
				GrossValue:  &GrossValueSettings{Min: 85000, Max: 110000},
				Persistence: reps(12),
				Step:        &StepSettings{MaxDelta: 1000},
			},
			domain.ObstypePressureSeaLevel: {
				GrossValue:  &GrossValueSettings{Min: 85000, Max: 110000},
				Persistence: reps(12),
				Step:        &StepSettings{MaxDelta: 1000},
			},
		},
	}
}

// settingsFile is the on-disk override schema. Only thresholds are
// overridable; the ignore and replacement markers stay at their defaults.
type settingsFile struct {
	Obstypes    map[string]ObstypeSettings `json:"obstypes"`
	Consistency *ConsistencySettings       `json:"consistency,omitempty"`
}

// LoadSettings reads a JSON threshold file and merges it over the defaults.
// Obstypes present in the file replace the default entry wholesale; obstypes
// absent from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}
	var file settingsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	for name, ots := range file.Obstypes {
		ot, err := domain.ParseObstype(name)
		if err != nil {
			return Settings{}, fmt.Errorf("settings file %s: %w", path, err)
		}
		settings.PerObstype[ot] = ots
	}
	if file.Consistency != nil {
		settings.Consistency = *file.Consistency
	}
	return settings, nil
}
