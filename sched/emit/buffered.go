package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// This emitter captures all events and provides query capabilities for
// post-run analysis. Events are organized by runID for efficient retrieval
// and filtering.
//
// Use cases:
//   - Asserting on the narrated interleaving in tests
//   - Comparing the event streams of two runs
//   - Debugging a skip-set configuration that hangs
//
// Events are kept until cleared, so long test suites should Clear runs they
// are done with.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	s := sched.New(emitter, nil, sched.Options{})
//
//	s.Run(ctx, "run-001", tasks, skips)
//
//	handoffs := emitter.GetHistoryWithFilter("run-001", emit.HistoryFilter{Msg: emit.MsgHandoff})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter specifies criteria for filtering captured events.
//
// All filter fields are optional. When multiple fields are set, they are
// combined with AND logic (all conditions must match).
type HistoryFilter struct {
	WorkerID string // Filter by worker ID (empty = no filter)
	Msg      string // Filter by message (empty = no filter)
	MinStep  *int   // Minimum step-counter value (nil = no filter)
	MaxStep  *int   // Maximum step-counter value (nil = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter. Safe for concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory retrieves all events for a specific runID, in emission order.
// Returns an empty slice if no events exist for the given runID.
//
// A copy of the events is returned to prevent concurrent modification.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	if events == nil {
		return []Event{}
	}

	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// GetHistoryWithFilter retrieves filtered events for a specific runID.
//
// Applies the provided filter criteria to select matching events; all
// conditions must match (AND logic). Returns events in emission order, or an
// empty slice if nothing matches.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	if events == nil {
		return []Event{}
	}

	if filter.WorkerID == "" && filter.Msg == "" && filter.MinStep == nil && filter.MaxStep == nil {
		result := make([]Event, len(events))
		copy(result, events)
		return result
	}

	var result []Event
	for _, event := range events {
		if !matchesFilter(event, filter) {
			continue
		}
		result = append(result, event)
	}

	if result == nil {
		return []Event{}
	}
	return result
}

// matchesFilter checks if an event matches the filter criteria.
func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.WorkerID != "" && event.WorkerID != filter.WorkerID {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinStep != nil && event.Step < *filter.MinStep {
		return false
	}
	if filter.MaxStep != nil && event.Step > *filter.MaxStep {
		return false
	}
	return true
}

// Clear removes stored events.
//
// If runID is non-empty, clears only events for that specific run.
// If runID is empty, clears all stored events across all runs.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, runID)
	}
}
