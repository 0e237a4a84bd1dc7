// pkg/envelope/envelope.go
package envelope

import "sort"

// Well-known header keys carried on every broker message.
const (
	HeaderCorrelationID = "correlationId"
	HeaderReplyTopic    = "replyTopic"
	HeaderEventType     = "eventType"
	HeaderError         = "error"
)

// Envelope is the wire unit exchanged over a topic: payload bytes plus headers.
type Envelope struct {
	Payload       []byte
	CorrelationID string
	ReplyTopic    string
	EventType     string
	// Error is only set on explicit error replies.
	Error string
	// Headers holds any header that is not one of the well-known keys.
	Headers map[string]string
}

// Header is a single key/value pair in broker order.
type Header struct {
	Key   string
	Value []byte
}

// IsRequest reports whether the envelope expects a reply.
func (e Envelope) IsRequest() bool { return e.ReplyTopic != "" }

// IsError reports whether the envelope is an explicit error reply.
func (e Envelope) IsError() bool { return e.Error != "" }

// ReplyTo builds a reply envelope that carries this envelope's correlation id.
func (e Envelope) ReplyTo(payload []byte, eventType string) Envelope {
	return Envelope{
		Payload:       payload,
		CorrelationID: e.CorrelationID,
		EventType:     eventType,
	}
}

// HeaderList flattens the envelope metadata into broker headers.
// Empty well-known values are omitted; extra headers are emitted in key order.
func (e Envelope) HeaderList() []Header {
	out := make([]Header, 0, 4+len(e.Headers))
	add := func(k, v string) {
		if v != "" {
			out = append(out, Header{Key: k, Value: []byte(v)})
		}
	}
	add(HeaderCorrelationID, e.CorrelationID)
	add(HeaderReplyTopic, e.ReplyTopic)
	add(HeaderEventType, e.EventType)
	add(HeaderError, e.Error)

	if len(e.Headers) > 0 {
		keys := make([]string, 0, len(e.Headers))
		for k := range e.Headers {
			if !isWellKnown(k) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Header{Key: k, Value: []byte(e.Headers[k])})
		}
	}
	return out
}

// FromHeaders rebuilds an envelope from a payload and broker headers.
// When a key repeats, the last value wins.
func FromHeaders(payload []byte, headers []Header) Envelope {
	env := Envelope{Payload: payload}
	for _, h := range headers {
		v := string(h.Value)
		switch h.Key {
		case HeaderCorrelationID:
			env.CorrelationID = v
		case HeaderReplyTopic:
			env.ReplyTopic = v
		case HeaderEventType:
			env.EventType = v
		case HeaderError:
			env.Error = v
		default:
			if env.Headers == nil {
				env.Headers = map[string]string{}
			}
			env.Headers[h.Key] = v
		}
	}
	return env
}

func isWellKnown(k string) bool {
	switch k {
	case HeaderCorrelationID, HeaderReplyTopic, HeaderEventType, HeaderError:
		return true
	}
	return false
}
