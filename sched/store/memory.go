package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Store.
//
// Designed for:
//   - Tests asserting on persisted traces without external dependencies
//   - Short-lived runs where persistence isn't required
//
// MemStore is thread-safe. Data is lost when the process terminates; for
// traces that must outlive the test process, use SQLiteStore or MySQLStore.
type MemStore struct {
	mu     sync.RWMutex
	traces map[string][]TraceEntry // runID -> trace
}

// NewMemStore creates a new in-memory store.
//
// Example:
//
//	st := store.NewMemStore()
//	s := sched.New(emitter, st, sched.Options{})
func NewMemStore() *MemStore {
	return &MemStore{
		traces: make(map[string][]TraceEntry),
	}
}

// SaveTrace stores a copy of the trace, replacing any previous trace saved
// under the same runID.
func (m *MemStore) SaveTrace(_ context.Context, runID string, entries []TraceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]TraceEntry, len(entries))
	copy(stored, entries)
	m.traces[runID] = stored
	return nil
}

// LoadTrace returns a copy of the run's trace.
func (m *MemStore) LoadTrace(_ context.Context, runID string) ([]TraceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, exists := m.traces[runID]
	if !exists {
		return nil, ErrNotFound
	}

	result := make([]TraceEntry, len(entries))
	copy(result, entries)
	return result, nil
}

// ListRuns returns all saved run IDs, sorted for deterministic output.
func (m *MemStore) ListRuns(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]string, 0, len(m.traces))
	for runID := range m.traces {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs, nil
}

// DeleteRun removes a run's trace.
func (m *MemStore) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.traces[runID]; !exists {
		return ErrNotFound
	}
	delete(m.traces, runID)
	return nil
}
