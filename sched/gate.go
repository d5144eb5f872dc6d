package sched

// gate is a worker's turn gate: a binary token channel. A worker may execute
// task-body code only while it holds the token. Gates start closed (empty),
// so every worker blocks until it is handed the floor.
type gate chan struct{}

func newGate() gate { return make(gate, 1) }

// open releases the gate, allowing its owner to proceed. The floor discipline
// guarantees at most one token exists across all gates, so open never blocks.
func (g gate) open() { g <- struct{}{} }

// wait blocks until the gate is opened, consuming the token.
func (g gate) wait() { <-g }
