package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it when a run's interleaving trace is all you need and event overhead
// is unwanted.
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
	// No-op: discard the event
}
