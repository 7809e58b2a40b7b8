package db

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore keeps run history in process memory.
// It is used when no database is configured; history is lost on exit.
type MemoryStore struct {
	mu          sync.RWMutex
	runs        []Run
	assignments map[string][]RunAssignment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assignments: make(map[string][]RunAssignment)}
}

func (m *MemoryStore) InsertRun(ctx context.Context, run *Run, assignments []RunAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.assignments[run.ID]; exists {
		return fmt.Errorf("failed to insert run: duplicate id %s", run.ID)
	}

	m.runs = append(m.runs, *run)
	m.assignments[run.ID] = slices.Clone(assignments)
	return nil
}

func (m *MemoryStore) GetRuns(ctx context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := slices.Clone(m.runs)
	slices.SortStableFunc(runs, func(a, b Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MemoryStore) GetRun(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.runs {
		if m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, ErrRunNotFound
}

func (m *MemoryStore) GetRunAssignments(ctx context.Context, runID string) ([]RunAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assignments, ok := m.assignments[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return slices.Clone(assignments), nil
}
