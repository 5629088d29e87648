// Package metrics exposes prometheus counters/histograms/gauges for the
// IMAP client's connection lifecycle, command dispatch, and IDLE event
// stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsIssued counts tagged commands whose outcome the engine
	// delivered (a tagged response or a connection close), labeled by
	// command verb (LOGIN, SELECT, FETCH, ...). A command abandoned at
	// its deadline or on cancellation is not counted.
	CommandsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imapclient_commands_issued_total",
		Help: "Total IMAP commands issued, by command verb",
	}, []string{"command"})

	// TaggedResponses counts tagged responses received, by their status
	// (OK, NO, BAD).
	TaggedResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imapclient_tagged_responses_total",
		Help: "Total tagged responses received, by status",
	}, []string{"status"})

	// CommandLatency observes the round-trip time between a command
	// being written and its tagged response arriving.
	CommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imapclient_command_duration_seconds",
		Help:    "Round-trip latency of tagged commands",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"command"})

	// UntaggedNotifications counts every untagged server response the
	// engine receives, whether or not a pending command accumulates it,
	// by response type (EXISTS, EXPUNGE, FETCH, VANISHED, ...).
	UntaggedNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imapclient_untagged_notifications_total",
		Help: "Total untagged responses received, by type",
	}, []string{"type"})

	// ParseErrors counts lines the response parser could not classify
	// or fold into a known shape.
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imapclient_parse_errors_total",
		Help: "Total response lines that failed to parse",
	})

	// IdleEvents counts events delivered to IDLE/watch subscribers, by
	// kind.
	IdleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imapclient_idle_events_total",
		Help: "Total IDLE/watch events delivered, by kind",
	}, []string{"kind"})

	// Reconnects counts transport reconnection attempts, by outcome.
	Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imapclient_reconnects_total",
		Help: "Total reconnect attempts, by outcome",
	}, []string{"outcome"})

	// CircuitState reports the connect/reconnect circuit breaker's
	// current state as a gauge: 0 closed, 1 open, 2 half-open.
	CircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "imapclient_circuit_breaker_state",
		Help: "Connect circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	// ActiveConnections tracks how many Client sessions currently hold
	// an open transport.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "imapclient_active_connections",
		Help: "Number of IMAP client sessions with an open connection",
	})
)

// RecordCommand records a finished command's verb, outcome status, and
// latency in one call.
func RecordCommand(verb, status string, durationSeconds float64) {
	CommandsIssued.WithLabelValues(verb).Inc()
	TaggedResponses.WithLabelValues(status).Inc()
	CommandLatency.WithLabelValues(verb).Observe(durationSeconds)
}

// RecordNotification records one untagged server response.
func RecordNotification(kind string) {
	UntaggedNotifications.WithLabelValues(kind).Inc()
}

// RecordIdleEvent records one event delivered to an IDLE/watch
// subscriber.
func RecordIdleEvent(kind string) {
	IdleEvents.WithLabelValues(kind).Inc()
}

// RecordReconnect records the outcome of a reconnect attempt
// ("success" or "failure").
func RecordReconnect(outcome string) {
	Reconnects.WithLabelValues(outcome).Inc()
}
