package events

// Record is the wire-shape of a structured state change: a type tag plus flat
// string attributes, ready for logs, metrics, and off-chain audit consumers.
type Record struct {
	Type       string
	Attributes map[string]string
}

// Event represents a structured state change emitted by the vault engine.
type Event interface {
	EventType() string
	Record() *Record
}

// Emitter broadcasts events to downstream subscribers (RPC, indexers, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
