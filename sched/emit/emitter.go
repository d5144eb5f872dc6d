package emit

// Emitter receives and processes observability events from scheduled runs.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, test logs
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for post-run assertions
//
// Implementations should be:
//   - Non-blocking: the scheduler emits while holding its run mutex, so a
//     slow emitter stretches every handoff
//   - Thread-safe: events for different runs may arrive concurrently
//   - Resilient: handle failures gracefully (never panic into the run)
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not panic. Errors should be handled internally.
	Emit(event Event)
}
