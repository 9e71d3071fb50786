package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbridge_backend_connects_total",
			Help: "Total backend connect attempts by outcome",
		},
		[]string{"backend", "status"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolbridge_tool_call_duration_seconds",
			Help:    "Duration of bridged tool calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "status"},
	)

	callRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbridge_call_retries_total",
			Help: "Total reconnect-and-retry attempts triggered by transport failures",
		},
		[]string{"backend"},
	)

	disconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbridge_backend_disconnects_total",
			Help: "Total unexpected backend disconnects",
		},
		[]string{"backend"},
	)
)

// recordConnect records the outcome of a backend connect attempt.
func recordConnect(backendID string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	connectsTotal.WithLabelValues(backendID, status).Inc()
}

// recordCall records the duration and outcome of one tool call.
func recordCall(backendID string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	callDuration.WithLabelValues(backendID, status).Observe(seconds)
}
