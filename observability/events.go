package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"stablevault/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured engine events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stablevault",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of emitted engine events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the emission counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(eventType))
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// MeteredEmitter counts every event before forwarding it downstream.
type MeteredEmitter struct {
	next events.Emitter
}

// NewMeteredEmitter wraps an emitter with event metrics. A nil next emitter
// discards events after counting them.
func NewMeteredEmitter(next events.Emitter) *MeteredEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &MeteredEmitter{next: next}
}

// Emit implements the events.Emitter interface.
func (e *MeteredEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	Events().RecordEvent(evt.EventType())
	e.next.Emit(evt)
}
