package domain

import (
	"fmt"
	"time"
)

// Label is one check's verdict for one timestamp.
type Label string

const (
	LabelOK               Label = "ok"
	LabelNotChecked       Label = "not checked"
	LabelMissingTimestamp Label = "missing timestamp"
	LabelNoObservations   Label = "no observations"

	LabelGrossValueOutlier  Label = "gross value outlier"
	LabelPersistenceOutlier Label = "persistence outlier"
	LabelStepOutlier        Label = "step outlier"
	LabelConsistencyOutlier Label = "internal consistency outlier"
)

// IsOutlier reports whether l is a rejection verdict written by a check.
func (l Label) IsOutlier() bool {
	switch l {
	case LabelGrossValueOutlier, LabelPersistenceOutlier, LabelStepOutlier, LabelConsistencyOutlier:
		return true
	}
	return false
}

// LabelColumn is one check's verdicts for every timestamp of a series.
type LabelColumn struct {
	Name   string
	Labels []Label
}

// LabelTable collects the label columns accumulated for one (station,
// obstype) pair, together with the observation values as they stood when the
// table was created. All columns share the table's timestamp index exactly.
type LabelTable struct {
	Times        []time.Time
	Observations []float64
	Columns      []LabelColumn
}

// NewLabelTable snapshots a reconciled series as the base of a label table.
func NewLabelTable(s Series) *LabelTable {
	snap := s.Clone()
	return &LabelTable{Times: snap.Times, Observations: snap.Values}
}

// AppendColumn adds a check's label column. Columns are immutable once
// written: appending an already-present name is an error, as is a column that
// does not cover the full timestamp index.
func (t *LabelTable) AppendColumn(name string, labels []Label) error {
	if len(labels) != len(t.Times) {
		return fmt.Errorf("label column %q has %d entries, table has %d timestamps", name, len(labels), len(t.Times))
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return fmt.Errorf("label column %q already present", name)
		}
	}
	out := make([]Label, len(labels))
	copy(out, labels)
	t.Columns = append(t.Columns, LabelColumn{Name: name, Labels: out})
	return nil
}

// Column returns the labels written by the named check.
func (t *LabelTable) Column(name string) ([]Label, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Labels, true
		}
	}
	return nil, false
}
