package events

import "log/slog"

// LogEmitter writes every event as a structured log line. It is the default
// sink for a daemon without an external indexer.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter builds an emitter over the supplied logger. A nil logger
// falls back to the process default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the Emitter interface.
func (e *LogEmitter) Emit(evt Event) {
	if e == nil || evt == nil {
		return
	}
	rec := evt.Record()
	if rec == nil {
		return
	}
	args := make([]any, 0, len(rec.Attributes)*2)
	for key, value := range rec.Attributes {
		args = append(args, slog.String(key, value))
	}
	e.logger.With(slog.String("event", rec.Type)).Info("event emitted", args...)
}
