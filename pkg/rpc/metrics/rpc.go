// pkg/rpc/metrics/rpc.go
package metrics

import "time"

// Outcome labels for rpc_calls_total and rpc_handled_requests_total.
const (
	OutcomeOK        = "ok"
	OutcomeTimeout   = "timeout"
	OutcomePublish   = "publish_error"
	OutcomeCancelled = "cancelled"
	OutcomeRemote    = "remote_error"
	OutcomeError     = "error"
	OutcomeNoReply   = "no_reply"
)

// Drop reasons for rpc_dropped_messages_total.
const (
	DropNoCorrelation = "missing_correlation_id"
	DropDecode        = "decode_error"
	DropUnmatched     = "unmatched_reply"
)

// ObserveCall records a finished Requestor.Call.
func ObserveCall(topic, outcome string, took time.Duration) {
	RPCCalls.WithLabelValues(topic, outcome).Inc()
	RPCCallDuration.WithLabelValues(topic).Observe(took.Seconds())
}

func CallStarted()  { RPCPendingCalls.Inc() }
func CallFinished() { RPCPendingCalls.Dec() }

func Dropped(topic, reason string) { RPCDroppedMessages.WithLabelValues(topic, reason).Inc() }

func Handled(topic, outcome string) { RPCHandledRequests.WithLabelValues(topic, outcome).Inc() }

// Published counts one publish of kind "request", "event" or "reply".
func Published(topic, kind string) { RPCPublished.WithLabelValues(topic, kind).Inc() }
