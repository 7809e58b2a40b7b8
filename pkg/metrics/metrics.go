// Package metrics records allocation run outcomes.
package metrics

import "time"

// Outcome labels for RecordRun
const (
	OutcomeSuccess     = "success"
	OutcomeConfigError = "config_error"
	OutcomeError       = "error"
)

// RunStats is what a finished run reports to the recorder
type RunStats struct {
	Assigned   int
	Unassigned int
	Skipped    int
	Backfilled int
}

// Recorder receives allocation run measurements
type Recorder interface {
	// RecordRun counts a run by outcome and observes its duration
	RecordRun(outcome string, duration time.Duration)

	// RecordResult publishes the seat usage of the last successful run
	RecordResult(stats RunStats)
}

// NopRecorder discards everything
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func NewNop() NopRecorder {
	return NopRecorder{}
}

func (NopRecorder) RecordRun(string, time.Duration) {}

func (NopRecorder) RecordResult(RunStats) {}
