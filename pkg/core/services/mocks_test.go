package services

import (
	"context"
	"time"

	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/metrics"
)

// mockRunStore implements AllocationStore and RunHistoryStore
type mockRunStore struct {
	runs        []db.Run
	assignments map[string][]db.RunAssignment

	insertedRun         *db.Run
	insertedAssignments []db.RunAssignment

	insertErr error
	getErr    error
}

func (m *mockRunStore) InsertRun(ctx context.Context, run *db.Run, assignments []db.RunAssignment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.insertedRun = run
	m.insertedAssignments = assignments
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunStore) GetRun(ctx context.Context, id string) (*db.Run, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, db.ErrRunNotFound
}

func (m *mockRunStore) GetRunAssignments(ctx context.Context, runID string) ([]db.RunAssignment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	assignments, ok := m.assignments[runID]
	if !ok {
		return nil, db.ErrRunNotFound
	}
	return assignments, nil
}

// mockRecorder implements metrics.Recorder
type mockRecorder struct {
	outcomes []string
	results  []metrics.RunStats
}

func (m *mockRecorder) RecordRun(outcome string, duration time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockRecorder) RecordResult(stats metrics.RunStats) {
	m.results = append(m.results, stats)
}

// mockPublisher implements ResultsPublisher
type mockPublisher struct {
	spreadsheetID string
	tab           string
	header        []string
	rows          [][]any
	err           error
}

func (m *mockPublisher) PublishResults(ctx context.Context, spreadsheetID, tabTitle string, header []string, rows [][]any) error {
	if m.err != nil {
		return m.err
	}
	m.spreadsheetID = spreadsheetID
	m.tab = tabTitle
	m.header = header
	m.rows = rows
	return nil
}
