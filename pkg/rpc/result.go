package rpc

import "reflect"

// Result is what a Handler returns: either a value to send back or an
// explicit decision not to reply.
type Result[T any] struct {
	value T
	reply bool
}

// Reply wraps v to be published to the request's reply topic.
func Reply[T any](v T) Result[T] { return Result[T]{value: v, reply: true} }

// NoReply signals that nothing is published for this request.
func NoReply[T any]() Result[T] { return Result[T]{} }

// Value returns the reply value and whether there is one.
func (r Result[T]) Value() (T, bool) { return r.value, r.reply }

// typeName is the eventType tag for T: its bare name when it has one.
func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
