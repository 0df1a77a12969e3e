package models

import "time"

// DeviceSnapshot is the raw field map returned by the cloud for one inverter
// in one successful polling cycle, plus the time the cycle captured it. The
// fields are stored exactly as decoded; no schema validation or coercion
// happens at this layer.
type DeviceSnapshot struct {
	Fields     map[string]any
	CapturedAt time.Time
}

// CycleOutcome partitions one polling cycle's configured inverters into
// successes and failures. OverallFailure is true only when every inverter
// failed in that cycle.
type CycleOutcome struct {
	CycleID        string
	Succeeded      []string
	Failed         []string
	OverallFailure bool
}
