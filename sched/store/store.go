package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// Trace entry kinds. Together with a worker's ID and step they describe one
// scheduling decision.
const (
	// KindStart marks a worker receiving the floor for the first time.
	KindStart = "start"

	// KindHandoff marks a yield that transferred the floor; Target names
	// the receiving worker.
	KindHandoff = "handoff"

	// KindSkip marks a yield suppressed by the worker's skip set.
	KindSkip = "skip"

	// KindFinish marks a worker's task body returning.
	KindFinish = "finish"
)

// TraceEntry is one scheduling decision in a run's interleaving trace.
//
// Entries are appended while the scheduler holds its run mutex, so Seq
// reflects the true order of decisions. Two runs of the same configuration
// produce entry-for-entry identical traces, which makes a persisted trace
// the comparison artifact for determinism checks.
type TraceEntry struct {
	// Seq is the entry's position in the trace, starting at 0.
	Seq int `json:"seq"`

	// WorkerID identifies the worker that made this decision.
	WorkerID string `json:"worker_id"`

	// Ordinal is the worker's registration position.
	Ordinal int `json:"ordinal"`

	// Step is the worker's step-counter value at decision time.
	Step int `json:"step"`

	// Kind is one of the Kind* constants.
	Kind string `json:"kind"`

	// Target is the receiving worker of a handoff; empty otherwise.
	Target string `json:"target,omitempty"`
}

// Store persists interleaving traces by run ID.
//
// It enables:
//   - Archiving the exact interleaving that reproduced a bug
//   - Comparing the traces of two runs for determinism checks
//   - Sharing reproduction schedules across machines and CI
//
// Implementations can use:
//   - In-memory storage (for tests, see memory.go)
//   - SQLite (single file, zero setup, see sqlite.go)
//   - MySQL/MariaDB (shared archives, see mysql.go)
type Store interface {
	// SaveTrace persists the complete trace of a run. Saving again under
	// the same runID replaces the previous trace.
	SaveTrace(ctx context.Context, runID string, entries []TraceEntry) error

	// LoadTrace retrieves a run's trace in Seq order.
	//
	// Returns ErrNotFound if the runID has no saved trace.
	LoadTrace(ctx context.Context, runID string) ([]TraceEntry, error)

	// ListRuns returns the IDs of all saved runs in lexicographic order.
	ListRuns(ctx context.Context) ([]string, error)

	// DeleteRun removes a run's trace.
	//
	// Returns ErrNotFound if the runID has no saved trace.
	DeleteRun(ctx context.Context, runID string) error
}
