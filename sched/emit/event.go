package emit

// Standard event messages emitted by the scheduler.
const (
	// MsgRunStart is emitted once before any worker starts.
	MsgRunStart = "run_start"

	// MsgWorkerStart is emitted when a worker first receives the floor.
	MsgWorkerStart = "worker_start"

	// MsgHandoff is emitted when a yield call transfers the floor; the
	// receiving worker is in Meta["target"].
	MsgHandoff = "handoff"

	// MsgSkip is emitted when a yield call is suppressed by the worker's
	// skip set and the worker retains the floor.
	MsgSkip = "skip"

	// MsgWorkerFinish is emitted when a worker's task body has returned and
	// its slot is marked Finished.
	MsgWorkerFinish = "worker_finish"

	// MsgRunComplete is emitted once after every worker has terminated.
	MsgRunComplete = "run_complete"
)

// Event represents an observability event emitted during a scheduled run.
//
// Events narrate the interleaving as it happens: which worker holds the
// floor, where it yields, which steps were skipped, and when workers finish.
// They are emitted to an Emitter which can log them, turn them into spans,
// or buffer them for post-run analysis.
type Event struct {
	// RunID identifies the scheduled run that emitted this event.
	RunID string

	// Seq is the position of this event in the run's scheduling order.
	// Scheduling decisions are serialized, so Seq totally orders the
	// worker-level events of a run. Zero for run-level events.
	Seq int

	// WorkerID identifies which worker the event concerns.
	// Empty for run-level events (run_start, run_complete).
	WorkerID string

	// Step is the worker's step-counter value at the time of the event.
	Step int

	// Msg names the event; one of the Msg* constants.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "target": receiving worker of a handoff
	//   - "workers": worker count on run-level events
	//   - "failed": count of panicked tasks on run_complete
	//   - "error": error details
	Meta map[string]interface{}
}
