package envelope_test

import (
	"testing"

	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
)

func TestHeaderListOmitsEmptyValues(t *testing.T) {
	env := envelope.Envelope{
		Payload:   []byte(`{}`),
		EventType: "WantsCreateSampleEvent",
	}
	hs := env.HeaderList()
	if len(hs) != 1 {
		t.Fatalf("expected 1 header, got %d: %+v", len(hs), hs)
	}
	if hs[0].Key != envelope.HeaderEventType {
		t.Fatalf("unexpected header key %q", hs[0].Key)
	}
}

func TestFromHeadersLastValueWins(t *testing.T) {
	env := envelope.FromHeaders([]byte("x"), []envelope.Header{
		{Key: envelope.HeaderCorrelationID, Value: []byte("first")},
		{Key: envelope.HeaderReplyTopic, Value: []byte("completed-get-sample")},
		{Key: envelope.HeaderCorrelationID, Value: []byte("second")},
		{Key: "X-Request-Id", Value: []byte("rid-1")},
	})
	if env.CorrelationID != "second" {
		t.Fatalf("correlation id = %q, want second", env.CorrelationID)
	}
	if !env.IsRequest() {
		t.Fatalf("expected request envelope")
	}
	if env.Headers["X-Request-Id"] != "rid-1" {
		t.Fatalf("extra header not preserved: %v", env.Headers)
	}
}

func TestReplyToKeepsCorrelationID(t *testing.T) {
	req := envelope.Envelope{CorrelationID: "abc", ReplyTopic: "replies"}
	rep := req.ReplyTo([]byte(`{"count":6}`), "Counter")
	if rep.CorrelationID != "abc" {
		t.Fatalf("reply correlation id = %q", rep.CorrelationID)
	}
	if rep.ReplyTopic != "" {
		t.Fatalf("reply must not carry a reply topic")
	}

	back := envelope.FromHeaders(rep.Payload, rep.HeaderList())
	if back.CorrelationID != "abc" || back.EventType != "Counter" {
		t.Fatalf("unexpected envelope %+v", back)
	}
}

func TestExtraHeadersCannotShadowWellKnown(t *testing.T) {
	env := envelope.Envelope{
		CorrelationID: "real",
		Headers:       map[string]string{envelope.HeaderCorrelationID: "fake", "b": "2", "a": "1"},
	}
	hs := env.HeaderList()
	if len(hs) != 3 {
		t.Fatalf("expected 3 headers, got %+v", hs)
	}
	if hs[1].Key != "a" || hs[2].Key != "b" {
		t.Fatalf("extra headers not sorted: %+v", hs)
	}
	if got := envelope.FromHeaders(nil, hs).CorrelationID; got != "real" {
		t.Fatalf("correlation id = %q", got)
	}
}
