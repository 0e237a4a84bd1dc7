// pkg/rpc/responder.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/codec"
	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc/metrics"
)

// Handler processes one decoded request. Returning an error (or panicking)
// produces no reply unless the Responder was built WithErrorReplies.
type Handler[Req, Resp any] func(ctx context.Context, req Req) (Result[Resp], error)

// GroupFor is the consumer group every Responder instance of topic joins,
// so instances share the topic's partitions.
func GroupFor(topic string) string { return topic + "-consumer-group" }

// Responder consumes Req messages from one topic and answers them through
// its handler.
type Responder[Req, Resp any] struct {
	topic     string
	group     string
	eventType string
	handler   Handler[Req, Resp]
	opts      options
	log       *zap.Logger

	pub broker.Publisher
	sub broker.Subscriber

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewResponder[Req, Resp any](tr broker.Transport, requestTopic string, h Handler[Req, Resp], opts ...Option) (*Responder[Req, Resp], error) {
	if tr == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidArgument)
	}
	if requestTopic == "" {
		return nil, fmt.Errorf("%w: empty request topic", ErrInvalidArgument)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidArgument)
	}
	o := newOptions(opts)
	group := GroupFor(requestTopic)

	sub, err := tr.NewSubscriber(requestTopic, group)
	if err != nil {
		return nil, fmt.Errorf("rpc: subscribe %q: %w", requestTopic, err)
	}
	pub, err := tr.NewPublisher()
	if err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("rpc: open publisher: %w", err)
	}

	et := o.eventType
	if et == "" {
		et = typeName[Resp]()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Responder[Req, Resp]{
		topic:     requestTopic,
		group:     group,
		eventType: et,
		handler:   h,
		opts:      o,
		log:       o.log.With(zap.String("topic", requestTopic), zap.String("group", group)),
		pub:       pub,
		sub:       sub,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go r.loop(ctx)
	r.log.Info("responder started")
	return r, nil
}

func (r *Responder[Req, Resp]) Topic() string { return r.topic }
func (r *Responder[Req, Resp]) Group() string { return r.group }

func (r *Responder[Req, Resp]) loop(ctx context.Context) {
	defer close(r.done)
	// in-flight handlers and their replies outlive shutdown
	work := context.WithoutCancel(ctx)
	for {
		env, err := r.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, broker.ErrClosed) {
				return
			}
			r.log.Warn("request receive failed", zap.Error(err))
			if !sleepCtx(ctx, r.opts.backoff) {
				return
			}
			continue
		}
		r.handle(work, env)
	}
}

func (r *Responder[Req, Resp]) handle(ctx context.Context, env envelope.Envelope) {
	log := r.log.With(zap.String("correlationId", env.CorrelationID), zap.String("eventType", env.EventType))

	if codec.IsNull(env.Payload) {
		metrics.Dropped(r.topic, metrics.DropDecode)
		log.Warn("null request skipped")
		return
	}
	var req Req
	if err := r.opts.codec.Unmarshal(env.Payload, &req); err != nil {
		metrics.Dropped(r.topic, metrics.DropDecode)
		log.Error("request dropped", zap.Error(&DecodeError{Topic: r.topic, CorrelationID: env.CorrelationID, Err: err}))
		return
	}

	start := time.Now()
	res, err := r.invoke(ctx, env, req)
	if err != nil {
		metrics.Handled(r.topic, metrics.OutcomeError)
		log.Error("handler failed", zap.Duration("lat", time.Since(start)), zap.Error(err))
		if r.opts.errorReplies && env.IsRequest() && env.CorrelationID != "" {
			reply := env.ReplyTo(nil, r.eventType)
			reply.Error = remoteMessage(err)
			r.publishReply(ctx, log, env.ReplyTopic, reply)
		}
		return
	}

	v, ok := res.Value()
	if !ok {
		metrics.Handled(r.topic, metrics.OutcomeNoReply)
		return
	}
	if !env.IsRequest() {
		metrics.Handled(r.topic, metrics.OutcomeNoReply)
		log.Debug("reply discarded: request carried no reply topic")
		return
	}

	payload, err := r.opts.codec.Marshal(v)
	if err != nil {
		metrics.Handled(r.topic, metrics.OutcomeError)
		log.Error("reply encode failed", zap.Error(err))
		return
	}
	metrics.Handled(r.topic, metrics.OutcomeOK)
	r.publishReply(ctx, log, env.ReplyTopic, env.ReplyTo(payload, r.eventType))
}

func (r *Responder[Req, Resp]) invoke(ctx context.Context, env envelope.Envelope, req Req) (res Result[Resp], err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HandlerError{Topic: r.topic, CorrelationID: env.CorrelationID, Panic: p}
		}
	}()
	res, err = r.handler(ctx, req)
	if err != nil {
		err = &HandlerError{Topic: r.topic, CorrelationID: env.CorrelationID, Err: err}
	}
	return res, err
}

func (r *Responder[Req, Resp]) publishReply(ctx context.Context, log *zap.Logger, topic string, reply envelope.Envelope) {
	if err := r.pub.Publish(ctx, topic, reply); err != nil {
		log.Error("reply publish failed", zap.String("replyTopic", topic), zap.Error(&PublishError{Topic: topic, Err: err}))
		return
	}
	metrics.Published(topic, "reply")
}

func remoteMessage(err error) string {
	var herr *HandlerError
	if errors.As(err, &herr) {
		if herr.Panic != nil {
			return fmt.Sprintf("panic: %v", herr.Panic)
		}
		if herr.Err != nil {
			return herr.Err.Error()
		}
	}
	return err.Error()
}

// Close is Shutdown bounded by the configured shutdown timeout.
func (r *Responder[Req, Resp]) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.shutdownTimeout)
	defer cancel()
	return r.Shutdown(ctx)
}

// Shutdown stops consuming after the message in progress and closes both
// connections. Calling it again returns the first result.
func (r *Responder[Req, Resp]) Shutdown(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.cancel()
		var errs []error
		select {
		case <-r.done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("rpc: request loop on %q did not stop: %w", r.topic, ctx.Err()))
		}
		errs = append(errs, r.sub.Close(), r.pub.Close())
		r.closeErr = errors.Join(errs...)
		r.log.Info("responder stopped")
	})
	return r.closeErr
}
