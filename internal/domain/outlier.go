package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// OutlierEvent is one rejected observation, destined for the alerting topic.
// Value is the observation as ingested, before any check replaced it.
type OutlierEvent struct {
	ID          string    `json:"id"`
	Station     string    `json:"station"`
	Network     string    `json:"network"`
	Obstype     string    `json:"obstype"`
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Value       float64   `json:"value"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CollectOutliers reduces every station's label table for obstype and emits
// one event per rejected timestamp, stations in dataset order.
func CollectOutliers(d *Dataset, obstype Obstype, codes LabelCodes) ([]OutlierEvent, error) {
	var events []OutlierEvent
	for _, st := range d.stations {
		table, ok := st.Labels(obstype)
		if !ok {
			continue
		}
		final, err := ReduceLabels(table, codes)
		if err != nil {
			return nil, fmt.Errorf("reducing labels for station %s: %w", st.Name, err)
		}
		for i, label := range final {
			if !label.IsOutlier() {
				continue
			}
			ts := table.Times[i]
			events = append(events, OutlierEvent{
				ID:          outlierID(st.Name, string(obstype), ts),
				Station:     st.Name,
				Network:     st.Network,
				Obstype:     string(obstype),
				Timestamp:   ts,
				Label:       string(label),
				Value:       table.Observations[i],
				ProcessedAt: clock.Now().UTC(),
			})
		}
	}
	return events, nil
}

// outlierID produces a deterministic ID from the event's key fields.
// Reprocessing the same observation window yields the same IDs, so downstream
// consumers can deduplicate replays.
func outlierID(station, obstype string, ts time.Time) string {
	input := fmt.Sprintf("%s|%s|%s", station, obstype, ts.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if obstype == "" {
		return short
	}
	return obstype + "-" + short
}
