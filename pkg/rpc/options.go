package rpc

import (
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/codec"
)

const (
	DefaultGroupPrefix     = "steeze-rpc-requestor"
	DefaultShutdownTimeout = 10 * time.Second
	defaultReceiveBackoff  = 250 * time.Millisecond
)

type options struct {
	log             *zap.Logger
	codec           codec.Codec
	errorReplies    bool
	shutdownTimeout time.Duration
	eventType       string
	groupPrefix     string
	backoff         time.Duration
}

// Option configures a Requestor or Responder.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		log:             zap.NewNop(),
		codec:           codec.JSON,
		shutdownTimeout: DefaultShutdownTimeout,
		groupPrefix:     DefaultGroupPrefix,
		backoff:         defaultReceiveBackoff,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCodec replaces the JSON payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithErrorReplies makes a Responder answer handler failures with an
// error-tagged reply instead of staying silent. Requestors always honour
// such replies.
func WithErrorReplies(on bool) Option { return func(o *options) { o.errorReplies = on } }

// WithShutdownTimeout bounds how long Close waits for the loop to exit.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithEventType overrides the eventType header stamped on outbound messages.
func WithEventType(name string) Option { return func(o *options) { o.eventType = name } }

// WithGroupPrefix sets the prefix of the Requestor's per-instance consumer group.
func WithGroupPrefix(p string) Option {
	return func(o *options) {
		if p != "" {
			o.groupPrefix = p
		}
	}
}

// WithReceiveBackoff sets the pause after a failed Receive.
func WithReceiveBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}
