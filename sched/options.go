package sched

// Options configures Scheduler behavior.
//
// Zero values are valid: a Scheduler with no metrics and the default worker
// prefix is fully functional. The emitter and trace store are positional
// arguments to New; everything else lives here.
type Options struct {
	// Metrics, when non-nil, receives handoff/skip counters, the active
	// worker gauge, and floor-hold observations for every run.
	Metrics *PrometheusMetrics

	// WorkerPrefix is prepended to the worker ordinal to form worker IDs
	// ("w0", "w1", ... by default). IDs appear in events, trace entries,
	// metrics labels, and TaskError.
	WorkerPrefix string
}

// Option is a functional option for configuring a Scheduler.
//
// Options can be mixed with the Options struct passed to New; functional
// options are applied last and win.
//
// Example:
//
//	s := sched.New(emitter, store, sched.Options{},
//	    sched.WithMetrics(m),
//	    sched.WithWorkerPrefix("writer-"),
//	)
type Option func(*Options)

// WithMetrics attaches a PrometheusMetrics collector to the scheduler.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithWorkerPrefix overrides the worker ID prefix (default "w").
//
// Useful when a test runs several schedules and wants the metrics labels and
// trace entries of each to name the roles involved ("reader-0", "writer-1").
func WithWorkerPrefix(prefix string) Option {
	return func(o *Options) { o.WorkerPrefix = prefix }
}
