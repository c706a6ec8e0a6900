// Package obs carries actorkit's ambient observability stack: Prometheus
// metrics over spawn/dispatch/request and OpenTelemetry tracing over
// request/reply round-trips, adapted from the teacher's
// coreengine/observability package and re-themed from pipeline/agent/LLM
// metrics to actor-runtime ones.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PROCESS METRICS
// =============================================================================

var (
	processSpawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_process_spawns_total",
			Help: "Total number of processes spawned",
		},
		[]string{"kind", "status"}, // kind: function, abstract, supervisor; status: ok, error
	)

	processDispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "actorkit_dispatch_duration_seconds",
			Help:    "Time spent inside one abstract-process handler invocation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"handler_kind"}, // message, request, deferred_request
	)
)

// =============================================================================
// REQUEST METRICS
// =============================================================================

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_requests_total",
			Help: "Total number of ap.Request/DeferredRequest round-trips",
		},
		[]string{"status"}, // ok, timeout, error
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "actorkit_request_duration_seconds",
			Help:    "Round-trip latency of ap.Request/DeferredRequest",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{},
	)
)

// =============================================================================
// PROTOCOL METRICS
// =============================================================================

var (
	protocolTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_protocol_transitions_total",
			Help: "Total number of session-typed protocol state transitions",
		},
		[]string{"op"}, // send, recv, select_left, select_right, offer
	)

	protocolLeakedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_protocol_leaked_total",
			Help: "Total number of sessions dropped before reaching End/TaskEnd",
		},
		[]string{},
	)
)

// =============================================================================
// SUPERVISOR METRICS
// =============================================================================

var (
	supervisorRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_supervisor_restarts_total",
			Help: "Total number of children restarted by a supervisor",
		},
		[]string{"strategy"}, // one_for_one, one_for_all, rest_for_one
	)

	supervisorGaveUpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actorkit_supervisor_gave_up_total",
			Help: "Total number of supervisors that exceeded their restart intensity",
		},
		[]string{},
	)
)

// RecordSpawn records a process spawn outcome.
func RecordSpawn(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	processSpawnsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveDispatch records how long a handler invocation took.
func ObserveDispatch(handlerKind string, seconds float64) {
	processDispatchDurationSeconds.WithLabelValues(handlerKind).Observe(seconds)
}

// RecordRequest records a Request/DeferredRequest outcome and its latency.
func RecordRequest(status string, seconds float64) {
	requestsTotal.WithLabelValues(status).Inc()
	requestDurationSeconds.WithLabelValues().Observe(seconds)
}

// RecordProtocolTransition records one session-typed protocol operation.
func RecordProtocolTransition(op string) {
	protocolTransitionsTotal.WithLabelValues(op).Inc()
}

// RecordProtocolLeak records a session dropped before End/TaskEnd.
func RecordProtocolLeak() {
	protocolLeakedTotal.WithLabelValues().Inc()
}

// RecordSupervisorRestart records one child restart under strategy.
func RecordSupervisorRestart(strategy string) {
	supervisorRestartsTotal.WithLabelValues(strategy).Inc()
}

// RecordSupervisorGaveUp records a supervisor exceeding its restart window.
func RecordSupervisorGaveUp() {
	supervisorGaveUpTotal.WithLabelValues().Inc()
}
