package sched

import (
	"errors"
	"fmt"
)

// ErrNoTasks indicates Run was called with an empty task list. The scheduler
// never invents work: it runs exactly the tasks it is given.
var ErrNoTasks = errors.New("at least one task is required")

// ErrTooManySkipSets indicates more skip sets than tasks were supplied.
// Skip sets are matched to tasks by position; fewer sets than tasks is fine
// (the remainder get empty sets), more is a configuration mistake.
var ErrTooManySkipSets = errors.New("more skip sets than tasks")

// SchedError represents an error from scheduler operations.
type SchedError struct {
	Message string
	Code    string
}

func (e *SchedError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// TaskError captures a panic raised by a task body. The scheduler recovers
// the panic so the worker can still mark its slot Finished and perform its
// final handoff; the error surfaces from Run only after every worker has
// terminated.
type TaskError struct {
	// WorkerID is the identifier of the worker whose task panicked.
	WorkerID string

	// Ordinal is the worker's registration position.
	Ordinal int

	// Value is the recovered panic value.
	Value any

	// Stack is the goroutine stack captured at recovery time.
	Stack []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task on worker %s (ordinal %d) panicked: %v", e.WorkerID, e.Ordinal, e.Value)
}
