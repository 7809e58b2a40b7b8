package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheus(reg, "test")
	require.NoError(t, err)

	rec.RecordRun(OutcomeSuccess, 20*time.Millisecond)
	rec.RecordRun(OutcomeSuccess, 30*time.Millisecond)
	rec.RecordRun(OutcomeConfigError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues(OutcomeConfigError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.runs.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.duration))
}

func TestPrometheusRecorder_RecordResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheus(reg, "test")
	require.NoError(t, err)

	rec.RecordResult(RunStats{Assigned: 8, Unassigned: 2, Skipped: 1, Backfilled: 3})
	rec.RecordResult(RunStats{Assigned: 5, Unassigned: 0, Skipped: 0, Backfilled: 2})

	// Gauges hold the last run, the backfill counter accumulates
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.assigned))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.unassigned))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.skipped))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.backfilled))
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg, "")
	require.NoError(t, err)

	_, err = NewPrometheus(reg, "")
	assert.Error(t, err)
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = NewNop()
	assert.NotPanics(t, func() {
		rec.RecordRun(OutcomeError, time.Second)
		rec.RecordResult(RunStats{Assigned: 1})
	})
}
