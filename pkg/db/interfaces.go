package db

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned when a run ID does not exist
var ErrRunNotFound = errors.New("run not found")

// RunStore defines the interface for allocation run history.
// Both the in-memory MemoryStore and postgres.DB implement this interface.
type RunStore interface {
	// InsertRun stores a run with its assignments atomically
	InsertRun(ctx context.Context, run *Run, assignments []RunAssignment) error

	// GetRuns returns the most recent runs first. A limit of 0 or less returns all runs.
	GetRuns(ctx context.Context, limit int) ([]Run, error)

	// GetRun returns a single run or ErrRunNotFound
	GetRun(ctx context.Context, id string) (*Run, error)

	// GetRunAssignments returns a run's assignments in rank order
	GetRunAssignments(ctx context.Context, runID string) ([]RunAssignment, error)
}
