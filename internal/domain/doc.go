// Package domain models weather-station observation series and their
// quality-control (QC) state.
//
// # Data Model
//
// Observations arrive as a normalized ingest table: one row per (timestamp,
// station) with a fixed metadata column set (name, network, lat, lon,
// call_name, location) and one value column per observation type. The ingest
// adapters (CSV, Postgres) own raw parsing; this package only consumes the
// normalized shape.
//
// A Station owns one Series per observation type plus one LabelTable per
// observation type. A Dataset owns the ordered station collection and a
// combined tabular projection (a gota dataframe) that is a pure cache,
// rebuilt after any operation that mutates station-level data.
//
// Missing or invalidated readings are represented by the NaN absent marker.
// A Series never shrinks once its timestamps have been reconciled.
//
// # Timestamp Reconciliation
//
// Before any QC check runs, duplicate timestamps are dropped (first
// occurrence wins) and the dominant sampling interval is inferred as the most
// frequent delta between consecutive timestamps (ties broken by first
// encounter). The series is then densified from its minimum to maximum
// timestamp at that interval; inserted timestamps carry absent values and a
// "missing timestamp" status label, originally-present timestamps get "ok".
// Empty series skip reconciliation entirely.
//
// # Labels
//
// Each QC check writes its own label column, index-aligned with the series it
// describes, and never touches the columns of other checks:
//
//	ok                - the value passed the check
//	not checked       - the value equalled the ignore value (usually because
//	                    an earlier check already rejected and replaced it)
//	* outlier         - rejected by the named check
//	missing timestamp - inserted during reconciliation
//	no observations   - the network never reports this observation type
//
// The final per-timestamp label is derived on demand by ReduceLabels using a
// label→code mapping where "ok" is 0. Under the ignore-value contract at most
// one check rejects a given timestamp; when that assumption is violated the
// highest code (the check latest in the pipeline order) wins, so an outlier
// verdict is never masked by "not checked". See DefaultLabelCodes.
//
// # Check Application
//
// Checks are pure: a CheckFunc returns a fresh Series and label column and
// Station.ApplyCheck swaps them in. Dataset.ApplyQualityControl applies the
// enabled checks check-major/station-minor: every station completes check k
// before any station starts check k+1. The current check set has no
// cross-station state, but the ordering contract is kept for checks that
// might.
package domain
