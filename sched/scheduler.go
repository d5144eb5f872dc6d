// Package sched implements a deterministic interleaving scheduler: it runs N
// independently written tasks on separate goroutines but forces them to
// execute in a fully deterministic, caller-controlled round-robin order.
//
// Ordinary concurrent execution is non-deterministic, so bugs that depend on
// a specific interleaving of operations across goroutines are unreproducible.
// The scheduler turns "run these N operations concurrently" into "run these N
// operations in this exact, repeatable interleaving": every task receives a
// *Turn handle and calls Next at each point where an interleaving boundary
// should exist; per-worker skip sets let a worker retain the floor across
// several of its own checkpoints before ceding it.
//
// The scheduler is a test primitive, not a service. A task that never yields,
// or a skip set that suppresses every handoff while other workers remain
// blocked, deadlocks the run; Run never times out on its own. Wrap runs in
// the test harness's timeout when exercising code that might misbehave.
package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dshills/interleave-go/sched/emit"
	"github.com/dshills/interleave-go/sched/store"
)

// Scheduler orchestrates deterministic interleaved runs.
//
// A Scheduler holds configuration only; all per-run state lives in the run,
// so a single Scheduler can execute any number of runs, sequentially or from
// different tests.
//
// Example:
//
//	s := sched.New(emit.NewLogEmitter(os.Stdout, false), nil, sched.Options{})
//
//	shared := []string{}
//	trace, err := s.Run(ctx, "run-001", []sched.Task{
//	    sched.TaskFunc(func(t *sched.Turn) {
//	        shared = append(shared, "A1")
//	        t.Next()
//	        shared = append(shared, "A2")
//	    }),
//	    sched.TaskFunc(func(t *sched.Turn) {
//	        shared = append(shared, "B1")
//	        t.Next()
//	        shared = append(shared, "B2")
//	    }),
//	}, nil)
//	// shared is always [A1 B1 A2 B2].
type Scheduler struct {
	emitter emit.Emitter
	store   store.Store
	opts    Options
}

// New creates a Scheduler.
//
// Parameters:
//   - emitter: observability event receiver (optional, can be nil)
//   - st: trace persistence backend (optional, can be nil; when set, every
//     run's interleaving trace is saved under its runID)
//   - opts: additional configuration (Metrics, WorkerPrefix)
//
// Functional options are applied after opts and override it.
func New(emitter emit.Emitter, st store.Store, opts Options, fns ...Option) *Scheduler {
	for _, fn := range fns {
		fn(&opts)
	}
	return &Scheduler{
		emitter: emitter,
		store:   st,
		opts:    opts,
	}
}

// Run executes every task to completion in the exact interleaving dictated by
// registration order, the skip sets, and each task's yield calls, then
// returns the recorded trace.
//
// One worker is registered per task, in order. skipSets is matched to tasks
// by position and may be shorter than tasks; the remaining workers get empty
// skip sets. Each worker starts blocked on its own gate; the first worker's
// gate is opened to begin the run, and Run blocks until every worker's
// goroutine has terminated.
//
// Two runs with identical tasks, skip sets, and yield-call counts produce
// identical traces regardless of the Go runtime's goroutine scheduling.
//
// A task body that panics still counts as finished for rotation purposes: the
// worker recovers the panic, marks its slot Finished, and performs its final
// handoff, so the remaining workers are never starved. The panic surfaces
// from Run as a *TaskError (multiple panics are joined) only after all
// workers have terminated.
//
// ctx is used for trace persistence only. A started run cannot be cancelled;
// the only exit path is natural completion of every task body.
func (s *Scheduler) Run(ctx context.Context, runID string, tasks []Task, skipSets [][]int) ([]store.TraceEntry, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if len(skipSets) > len(tasks) {
		return nil, fmt.Errorf("%w: %d skip sets for %d tasks", ErrTooManySkipSets, len(skipSets), len(tasks))
	}

	prefix := s.opts.WorkerPrefix
	if prefix == "" {
		prefix = "w"
	}

	r := &run{
		id:      runID,
		emitter: s.emitter,
		metrics: s.opts.Metrics,
		table:   &table{},
	}
	r.seq.table = r.table

	for i := range tasks {
		var skip []int
		if i < len(skipSets) {
			skip = skipSets[i]
		}
		r.table.register(fmt.Sprintf("%s%d", prefix, i), skip)
	}

	r.emit(emit.Event{
		RunID: runID,
		Msg:   emit.MsgRunStart,
		Meta:  map[string]interface{}{"workers": len(tasks)},
	})
	if r.metrics != nil {
		r.metrics.SetActiveWorkers(len(tasks))
	}

	r.wg.Add(len(tasks))
	for i, task := range tasks {
		go r.worker(r.table.slots[i], task)
	}

	// Hand the floor to the first worker. Every goroutine is already parked
	// on its own gate (or about to be; the gate token waits for it).
	r.mu.Lock()
	first := r.seq.nextActive()
	first.floorSince = time.Now()
	r.mu.Unlock()
	first.gate.open()

	r.wg.Wait()

	err := errors.Join(r.failures...)

	r.emit(emit.Event{
		RunID: runID,
		Msg:   emit.MsgRunComplete,
		Meta:  map[string]interface{}{"workers": len(tasks), "failed": len(r.failures)},
	})
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.IncRuns(status)
		r.metrics.SetActiveWorkers(0)
	}

	if s.store != nil {
		if serr := s.store.SaveTrace(ctx, runID, r.trace); serr != nil {
			err = errors.Join(err, &SchedError{
				Message: "failed to save trace: " + serr.Error(),
				Code:    "STORE_ERROR",
			})
		}
	}

	return r.trace, err
}

// run is the per-invocation state: the slot table, the sequencer cursor, the
// recorded trace, and the failures collected from panicking tasks. mu guards
// everything that the yield protocol and the finishing-worker bookkeeping
// touch, so "mark Finished" and "is this slot Active" are always observed
// consistently.
type run struct {
	id      string
	emitter emit.Emitter
	metrics *PrometheusMetrics

	mu    sync.Mutex
	table *table
	seq   sequencer
	trace []store.TraceEntry

	wg       sync.WaitGroup
	failures []error
}

// worker is the task lifecycle wrapper. It blocks until given the floor, runs
// the task body to completion (recovering panics so a failing task cannot
// leave the others blocked forever), marks its slot Finished, and yields one
// final time so the floor is handed forward even though this worker will
// never run again.
func (r *run) worker(sl *slot, task Task) {
	defer r.wg.Done()

	sl.gate.wait()

	r.mu.Lock()
	r.recordLocked(sl, sl.step, store.KindStart, nil)
	r.mu.Unlock()

	func() {
		defer func() {
			if v := recover(); v != nil {
				te := &TaskError{
					WorkerID: sl.id,
					Ordinal:  sl.ordinal,
					Value:    v,
					Stack:    debug.Stack(),
				}
				r.mu.Lock()
				r.failures = append(r.failures, te)
				r.mu.Unlock()
			}
		}()
		task.Run(&Turn{run: r, slot: sl})
	}()

	r.mu.Lock()
	sl.state = slotFinished
	r.recordLocked(sl, sl.step, store.KindFinish, nil)
	if r.metrics != nil {
		r.metrics.SetActiveWorkers(r.table.running())
	}
	r.mu.Unlock()

	r.next(sl)
}

// next is the yield protocol. With the run mutex held it counts the still
// Active slots, consults the caller's skip set at the current step index,
// advances the step counter, and, unless the step is skipped, asks the
// sequencer for the next Active slot. The target gate is opened outside the
// lock; the caller then blocks on its own gate unless it has already been
// marked Finished (the final yield never blocks).
//
// When no Active slot remains the call is a no-op and the step counter does
// not advance: this was the very last worker and there is nothing left to
// hand off to.
func (r *run) next(sl *slot) {
	r.mu.Lock()

	if r.table.running() == 0 {
		r.mu.Unlock()
		return
	}

	stepIdx := sl.step
	sl.step++

	if _, skipped := sl.skip[stepIdx]; skipped {
		r.recordLocked(sl, stepIdx, store.KindSkip, nil)
		if r.metrics != nil {
			r.metrics.IncSkips(r.id, sl.id)
		}
		r.mu.Unlock()
		return
	}

	target := r.seq.nextActive()
	blocking := sl.state == slotActive
	r.recordLocked(sl, stepIdx, store.KindHandoff, target)
	if r.metrics != nil {
		r.metrics.IncHandoffs(r.id, sl.id)
		if !sl.floorSince.IsZero() {
			r.metrics.ObserveFloorHold(r.id, sl.id, time.Since(sl.floorSince))
		}
	}
	target.floorSince = time.Now()
	r.mu.Unlock()

	target.gate.open()
	if blocking {
		sl.gate.wait()
	}
}

// recordLocked appends a trace entry and emits the matching event. Callers
// must hold r.mu; the sequence number therefore reflects the true order of
// scheduling decisions.
func (r *run) recordLocked(sl *slot, step int, kind string, target *slot) {
	entry := store.TraceEntry{
		Seq:      len(r.trace),
		WorkerID: sl.id,
		Ordinal:  sl.ordinal,
		Step:     step,
		Kind:     kind,
	}
	if target != nil {
		entry.Target = target.id
	}
	r.trace = append(r.trace, entry)

	if r.emitter == nil {
		return
	}
	ev := emit.Event{
		RunID:    r.id,
		Seq:      entry.Seq,
		WorkerID: sl.id,
		Step:     step,
		Msg:      kindMsg(kind),
	}
	if target != nil {
		ev.Meta = map[string]interface{}{"target": target.id}
	}
	r.emitter.Emit(ev)
}

func (r *run) emit(ev emit.Event) {
	if r.emitter != nil {
		r.emitter.Emit(ev)
	}
}

func kindMsg(kind string) string {
	switch kind {
	case store.KindStart:
		return emit.MsgWorkerStart
	case store.KindHandoff:
		return emit.MsgHandoff
	case store.KindSkip:
		return emit.MsgSkip
	case store.KindFinish:
		return emit.MsgWorkerFinish
	}
	return kind
}
