package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/pkg/db"
)

// RunHistoryStore defines the database operations needed to read stored runs
type RunHistoryStore interface {
	GetRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, id string) (*db.Run, error)
	GetRunAssignments(ctx context.Context, runID string) ([]db.RunAssignment, error)
}

// RunDetail is a stored run with its ranked assignments
type RunDetail struct {
	Run         *db.Run
	Assignments []db.RunAssignment
}

// ListRuns returns stored runs newest first. limit <= 0 returns all of them.
func ListRuns(ctx context.Context, store RunHistoryStore, logger *zap.Logger, limit int) ([]db.Run, error) {
	logger.Debug("Listing runs", zap.Int("limit", limit))

	runs, err := store.GetRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches one stored run and its assignments.
// A missing run is reported as db.ErrRunNotFound.
func GetRun(ctx context.Context, store RunHistoryStore, logger *zap.Logger, runID string) (*RunDetail, error) {
	logger.Debug("Fetching run", zap.String("run_id", runID))

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %s: %w", runID, err)
	}

	assignments, err := store.GetRunAssignments(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments for run %s: %w", runID, err)
	}

	return &RunDetail{Run: run, Assignments: assignments}, nil
}
