// pkg/rpc/errors.go
package rpc

import "fmt"

var (
	// ErrTimeout is returned by Call when no reply arrived within the timeout.
	ErrTimeout = errorString("rpc: timed out waiting for reply")
	// ErrCancelled is returned by Call when the Requestor shut down first.
	ErrCancelled = errorString("rpc: call cancelled by shutdown")
	// ErrPublish matches every *PublishError via errors.Is.
	ErrPublish = errorString("rpc: publish failed")
	// ErrInvalidArgument is returned for an empty topic or non-positive timeout.
	ErrInvalidArgument = errorString("rpc: invalid argument")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// PublishError is the broker's refusal of an outbound message.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rpc: publish to %q failed: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool { return target == ErrPublish }

// DecodeError is an inbound payload that could not be decoded.
// It is logged and the message dropped; callers never see it.
type DecodeError struct {
	Topic         string
	CorrelationID string
	Err           error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rpc: decode message on %q (correlationId=%q): %v", e.Topic, e.CorrelationID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HandlerError wraps a handler failure or a recovered panic.
type HandlerError struct {
	Topic         string
	CorrelationID string
	Err           error
	Panic         any
}

func (e *HandlerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("rpc: handler for %q panicked: %v", e.Topic, e.Panic)
	}
	return fmt.Sprintf("rpc: handler for %q failed: %v", e.Topic, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// RemoteError carries the message of an explicit error reply.
type RemoteError struct {
	Topic   string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: remote handler for %q failed: %s", e.Topic, e.Message)
}
