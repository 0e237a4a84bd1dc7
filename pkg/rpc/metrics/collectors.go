// pkg/rpc/metrics/collectors.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors for requestors and responders.
var (
	RPCCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rpc_calls_total", Help: "rpc calls by request topic and outcome"},
		[]string{"topic", "outcome"},
	)

	RPCCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_call_duration_seconds",
			Help:    "time from publish to resolution of an rpc call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	RPCPendingCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "rpc_pending_calls", Help: "calls awaiting a reply across all requestors"},
	)

	RPCDroppedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rpc_dropped_messages_total", Help: "inbound messages dropped without processing"},
		[]string{"topic", "reason"},
	)

	RPCHandledRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rpc_handled_requests_total", Help: "requests processed by responders"},
		[]string{"topic", "outcome"},
	)

	RPCPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rpc_published_messages_total", Help: "messages published by kind"},
		[]string{"topic", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RPCCalls,
		RPCCallDuration,
		RPCPendingCalls,
		RPCDroppedMessages,
		RPCHandledRequests,
		RPCPublished,
	)
}
