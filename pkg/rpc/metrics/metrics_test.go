package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/joeydtaylor/steeze-rpc/pkg/rpc/metrics"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	if err := (<-ch).Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestObserveCall(t *testing.T) {
	c := metrics.RPCCalls.WithLabelValues("wants-test-observe", metrics.OutcomeTimeout)
	before := counterValue(t, c)
	metrics.ObserveCall("wants-test-observe", metrics.OutcomeTimeout, 20*time.Millisecond)
	if got := counterValue(t, c); got != before+1 {
		t.Fatalf("rpc_calls_total = %v, want %v", got, before+1)
	}
}

func TestPendingGauge(t *testing.T) {
	before := counterValue(t, metrics.RPCPendingCalls)
	metrics.CallStarted()
	metrics.CallStarted()
	metrics.CallFinished()
	if got := counterValue(t, metrics.RPCPendingCalls); got != before+1 {
		t.Fatalf("rpc_pending_calls = %v, want %v", got, before+1)
	}
	metrics.CallFinished()
}

func TestDroppedAndPublished(t *testing.T) {
	d := metrics.RPCDroppedMessages.WithLabelValues("t-drop", metrics.DropDecode)
	p := metrics.RPCPublished.WithLabelValues("t-drop", "reply")
	metrics.Dropped("t-drop", metrics.DropDecode)
	metrics.Published("t-drop", "reply")
	if counterValue(t, d) < 1 || counterValue(t, p) < 1 {
		t.Fatalf("expected dropped and published counters to move")
	}
}
