package domain

import "fmt"

// LabelCodes maps every label to a unique integer code. "ok" must map to 0.
// Outlier labels carry the highest codes so that reduction can never let a
// "not checked" or "missing timestamp" verdict mask a rejection.
type LabelCodes map[Label]int

// DefaultLabelCodes returns the standard code assignment. Codes follow the
// pipeline order of the checks, so on the (unexpected) multi-rejection case
// the check latest in the pipeline wins the tie-break.
func DefaultLabelCodes() LabelCodes {
	return LabelCodes{
		LabelOK:                 0,
		LabelNotChecked:         1,
		LabelNoObservations:     2,
		LabelMissingTimestamp:   3,
		LabelGrossValueOutlier:  4,
		LabelPersistenceOutlier: 5,
		LabelStepOutlier:        6,
		LabelConsistencyOutlier: 7,
	}
}

// ReduceLabels combines all label columns of a table into one final label per
// timestamp. If every check labelled a timestamp "ok" the final label is
// "ok"; otherwise it is the label of the single rejecting check. Under the
// ignore-value contract at most one check rejects per timestamp; should more
// than one reject anyway, the label with the highest code wins.
func ReduceLabels(t *LabelTable, codes LabelCodes) ([]Label, error) {
	inverse := make(map[int]Label, len(codes))
	for l, c := range codes {
		if prev, ok := inverse[c]; ok {
			return nil, fmt.Errorf("label codes not unique: %q and %q both map to %d", prev, l, c)
		}
		inverse[c] = l
	}
	if inverse[0] != LabelOK {
		return nil, fmt.Errorf("label code 0 must map to %q", LabelOK)
	}

	final := make([]Label, len(t.Times))
	for i := range t.Times {
		highest := 0
		for _, col := range t.Columns {
			code, ok := codes[col.Labels[i]]
			if !ok {
				return nil, fmt.Errorf("label %q in column %q has no code", col.Labels[i], col.Name)
			}
			if code > highest {
				highest = code
			}
		}
		final[i] = inverse[highest]
	}
	return final, nil
}
