// Package qc implements the quality-control check library: pure functions
// over a single observation series, plus one composite check that judges
// temperature against simultaneous humidity.
//
// Shared check contract: a value equal to the configured ignore value is
// skipped and labeled "not checked"; a rejected value is overwritten with the
// replacement value so later checks in the same run skip it automatically; a
// passing value is labeled "ok".
package qc

import (
	"fmt"
	"math"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Check column names, also the order checks run in. The order is fixed:
// cheap range checks knock out the wildest values before the sequential
// checks compare neighbours.
const (
	CheckGrossValue  = "gross_value"
	CheckPersistence = "persistence"
	CheckStep        = "step"
	CheckConsistency = "internal_consistency"
)

// CheckOrder is the mandated execution order.
var CheckOrder = []string{CheckGrossValue, CheckPersistence, CheckStep, CheckConsistency}

// IsCheckName reports whether name identifies a known check.
func IsCheckName(name string) bool {
	for _, n := range CheckOrder {
		if n == name {
			return true
		}
	}
	return false
}

// Checks assembles the enabled checks in execution order. An empty enabled
// slice enables everything.
func Checks(settings Settings, enabled []string) ([]domain.NamedCheck, error) {
	isEnabled := func(name string) bool {
		if len(enabled) == 0 {
			return true
		}
		for _, e := range enabled {
			if e == name {
				return true
			}
		}
		return false
	}
	for _, e := range enabled {
		if !IsCheckName(e) {
			return nil, fmt.Errorf("unknown check %q", e)
		}
	}

	var out []domain.NamedCheck
	for _, name := range CheckOrder {
		if !isEnabled(name) {
			continue
		}
		switch name {
		case CheckGrossValue:
			out = append(out, domain.NamedCheck{Name: name, Fn: GrossValue(settings)})
		case CheckPersistence:
			out = append(out, domain.NamedCheck{Name: name, Fn: Persistence(settings)})
		case CheckStep:
			out = append(out, domain.NamedCheck{Name: name, Fn: Step(settings)})
		case CheckConsistency:
			out = append(out, domain.NamedCheck{Name: name, Fn: Consistency(settings)})
		}
	}
	return out, nil
}

// GrossValue rejects values outside the configured inclusive [min, max]
// range for the obstype.
func GrossValue(settings Settings) domain.CheckFunc {
	return func(st *domain.Station, obstype domain.Obstype) (domain.Series, []domain.Label, error) {
		s, cfg, err := seriesAndConfig(st, obstype, settings)
		if err != nil {
			return domain.Series{}, nil, err
		}
		if cfg.GrossValue == nil {
			return domain.Series{}, nil, fmt.Errorf("gross value check not configured for %s", obstype)
		}

		out := s.Clone()
		labels := make([]domain.Label, out.Len())
		for i, v := range s.Values {
			if ignored(v, settings.IgnoreValue) {
				labels[i] = domain.LabelNotChecked
				continue
			}
			if v < cfg.GrossValue.Min || v > cfg.GrossValue.Max {
				labels[i] = domain.LabelGrossValueOutlier
				out.Values[i] = settings.ReplaceValue
				continue
			}
			labels[i] = domain.LabelOK
		}
		return out, labels, nil
	}
}

// Persistence rejects values that repeat unchanged for more than the
// configured run length of consecutive samples. A skipped value breaks the
// run.
func Persistence(settings Settings) domain.CheckFunc {
	return func(st *domain.Station, obstype domain.Obstype) (domain.Series, []domain.Label, error) {
		s, cfg, err := seriesAndConfig(st, obstype, settings)
		if err != nil {
			return domain.Series{}, nil, err
		}
		if cfg.Persistence == nil {
			return domain.Series{}, nil, fmt.Errorf("persistence check not configured for %s", obstype)
		}

		out := s.Clone()
		labels := make([]domain.Label, out.Len())
		var runValue float64
		runLen := 0
		for i, v := range s.Values {
			if ignored(v, settings.IgnoreValue) {
				labels[i] = domain.LabelNotChecked
				runLen = 0
				continue
			}
			if runLen > 0 && v == runValue {
				runLen++
			} else {
				runValue = v
				runLen = 1
			}
			if runLen > cfg.Persistence.MaxRepetitions {
				labels[i] = domain.LabelPersistenceOutlier
				out.Values[i] = settings.ReplaceValue
				continue
			}
			labels[i] = domain.LabelOK
		}
		return out, labels, nil
	}
}

// Step rejects values whose absolute change from the previous sample exceeds
// the configured threshold. Deltas are computed on the incoming values, so a
// rejected value still serves as the reference for its successor. A value
// with no preceding sample passes.
func Step(settings Settings) domain.CheckFunc {
	return func(st *domain.Station, obstype domain.Obstype) (domain.Series, []domain.Label, error) {
		s, cfg, err := seriesAndConfig(st, obstype, settings)
		if err != nil {
			return domain.Series{}, nil, err
		}
		if cfg.Step == nil {
			return domain.Series{}, nil, fmt.Errorf("step check not configured for %s", obstype)
		}

		out := s.Clone()
		labels := make([]domain.Label, out.Len())
		for i, v := range s.Values {
			if ignored(v, settings.IgnoreValue) {
				labels[i] = domain.LabelNotChecked
				continue
			}
			if i > 0 && !ignored(s.Values[i-1], settings.IgnoreValue) &&
				math.Abs(v-s.Values[i-1]) > cfg.Step.MaxDelta {
				labels[i] = domain.LabelStepOutlier
				out.Values[i] = settings.ReplaceValue
				continue
			}
			labels[i] = domain.LabelOK
		}
		return out, labels, nil
	}
}

func seriesAndConfig(st *domain.Station, obstype domain.Obstype, settings Settings) (domain.Series, ObstypeSettings, error) {
	s, ok := st.Series(obstype)
	if !ok {
		return domain.Series{}, ObstypeSettings{}, fmt.Errorf("no %s series", obstype)
	}
	cfg, ok := settings.PerObstype[obstype]
	if !ok {
		return domain.Series{}, ObstypeSettings{}, fmt.Errorf("no settings for %s", obstype)
	}
	return s, cfg, nil
}

// ignored reports whether v equals the configured ignore value. The absent
// marker never equals itself under ==, so it gets an explicit case.
func ignored(v, ignoreValue float64) bool {
	if domain.IsAbsent(ignoreValue) {
		return domain.IsAbsent(v)
	}
	return v == ignoreValue
}
