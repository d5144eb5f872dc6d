package sched

// Task is one unit of work executed on its own goroutine under scheduler
// control. The scheduler passes each task a *Turn carrying the worker's
// identity and its yield operation; code whose execution order must be
// controlled receives the handle explicitly rather than consulting any
// global state.
//
// A task body runs exclusively between yield points: no other worker
// executes task-body code until this one calls t.Next() or returns.
type Task interface {
	Run(t *Turn)
}

// TaskFunc adapts an ordinary function to the Task interface.
//
// Example:
//
//	task := sched.TaskFunc(func(t *sched.Turn) {
//	    doFirstHalf()
//	    t.Next() // let the other workers interleave here
//	    doSecondHalf()
//	})
type TaskFunc func(t *Turn)

// Run calls f(t).
func (f TaskFunc) Run(t *Turn) { f(t) }

// Turn is a worker's handle into the running scheduler. It is valid only for
// the duration of the task body it was passed to and only on that worker's
// goroutine.
type Turn struct {
	run  *run
	slot *slot
}

// Next requests a handoff: unless the worker's skip set contains the current
// step index, the next Active worker in rotation receives the floor and the
// caller blocks until some later handoff reopens its own gate. When the step
// is skipped, control stays with the caller and Next returns without
// blocking. The step counter increments either way.
//
// Next is the only suspension point in the system. Place a call at every
// boundary where the experimenter wants a controllable interleaving.
func (t *Turn) Next() { t.run.next(t.slot) }

// Ordinal returns the worker's registration position, starting at 0.
func (t *Turn) Ordinal() int { return t.slot.ordinal }

// ID returns the worker's identifier as used in events, traces, and metrics
// labels.
func (t *Turn) ID() string { return t.slot.id }

// Step returns the number of times this worker has called Next so far.
// Only the owning worker writes the counter, so reading it from inside the
// task body needs no further synchronization.
func (t *Turn) Step() int { return t.slot.step }
