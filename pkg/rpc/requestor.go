// pkg/rpc/requestor.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/correlation"
	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc/metrics"
)

// Requestor sends Req messages and waits for the correlated Resp replies
// arriving on its reply topic. One Requestor serves any number of
// concurrent calls.
type Requestor[Req, Resp any] struct {
	replyTopic string
	group      string
	eventType  string
	opts       options
	log        *zap.Logger

	pub broker.Publisher
	sub broker.Subscriber
	reg *correlation.Registry[Resp]

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewRequestor subscribes to replyTopic under a consumer group unique to this
// instance, opens a publisher and starts the reply loop.
func NewRequestor[Req, Resp any](tr broker.Transport, replyTopic string, opts ...Option) (*Requestor[Req, Resp], error) {
	if tr == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidArgument)
	}
	if replyTopic == "" {
		return nil, fmt.Errorf("%w: empty reply topic", ErrInvalidArgument)
	}
	o := newOptions(opts)
	group := o.groupPrefix + "-" + uuid.NewString()

	sub, err := tr.NewSubscriber(replyTopic, group)
	if err != nil {
		return nil, fmt.Errorf("rpc: subscribe %q: %w", replyTopic, err)
	}
	pub, err := tr.NewPublisher()
	if err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("rpc: open publisher: %w", err)
	}

	et := o.eventType
	if et == "" {
		et = typeName[Req]()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Requestor[Req, Resp]{
		replyTopic: replyTopic,
		group:      group,
		eventType:  et,
		opts:       o,
		log:        o.log.With(zap.String("replyTopic", replyTopic), zap.String("group", group)),
		pub:        pub,
		sub:        sub,
		reg:        correlation.NewRegistry[Resp](),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go r.loop(ctx)
	r.log.Info("requestor started")
	return r, nil
}

func (r *Requestor[Req, Resp]) ReplyTopic() string { return r.replyTopic }
func (r *Requestor[Req, Resp]) Group() string      { return r.group }

// Pending is the number of calls still waiting for an outcome.
func (r *Requestor[Req, Resp]) Pending() int { return r.reg.Len() }

// Call publishes req to topic and waits for the correlated reply.
//
// Exactly one of these is returned: the decoded reply, ErrTimeout, a
// *PublishError, a *RemoteError, ctx's error, or ErrCancelled when the
// Requestor shuts down first.
func (r *Requestor[Req, Resp]) Call(ctx context.Context, topic string, req Req, timeout time.Duration) (Resp, error) {
	var zero Resp
	if topic == "" {
		return zero, fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}
	if timeout <= 0 {
		return zero, fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidArgument, timeout)
	}

	payload, err := r.opts.codec.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("rpc: encode request for %q: %w", topic, err)
	}

	id := uuid.NewString()
	slot, err := r.reg.Register(id)
	if err != nil {
		if errors.Is(err, correlation.ErrClosed) {
			return zero, ErrCancelled
		}
		return zero, err
	}

	start := time.Now()
	metrics.CallStarted()
	defer metrics.CallFinished()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	env := envelope.Envelope{
		Payload:       payload,
		CorrelationID: id,
		ReplyTopic:    r.replyTopic,
		EventType:     r.eventType,
	}
	if err := r.pub.Publish(ctx, topic, env); err != nil {
		r.reg.Remove(id)
		metrics.ObserveCall(topic, metrics.OutcomePublish, time.Since(start))
		r.log.Error("request publish failed",
			zap.String("topic", topic), zap.String("correlationId", id), zap.Error(err))
		return zero, &PublishError{Topic: topic, Err: err}
	}
	metrics.Published(topic, "request")

	select {
	case o := <-slot.Done():
		return r.finish(topic, id, start, o)
	case <-timer.C:
		r.reg.Cancel(id, ErrTimeout)
	case <-ctx.Done():
		r.reg.Cancel(id, ctx.Err())
	}

	// Whoever completed the slot first decides the outcome.
	return r.finish(topic, id, start, <-slot.Done())
}

func (r *Requestor[Req, Resp]) finish(topic, id string, start time.Time, o correlation.Outcome[Resp]) (Resp, error) {
	took := time.Since(start)
	if o.Err == nil {
		metrics.ObserveCall(topic, metrics.OutcomeOK, took)
		return o.Value, nil
	}

	var zero Resp
	var remote *RemoteError
	outcome := metrics.OutcomeError
	switch {
	case errors.Is(o.Err, ErrTimeout):
		outcome = metrics.OutcomeTimeout
		r.log.Warn("call timed out",
			zap.String("topic", topic), zap.String("correlationId", id), zap.Duration("waited", took))
	case errors.Is(o.Err, ErrCancelled):
		outcome = metrics.OutcomeCancelled
	case errors.As(o.Err, &remote):
		outcome = metrics.OutcomeRemote
		remote.Topic = topic
	}
	metrics.ObserveCall(topic, outcome, took)
	return zero, o.Err
}

// FireAndForget publishes req without a correlation id and returns once the
// broker accepted it.
func (r *Requestor[Req, Resp]) FireAndForget(ctx context.Context, topic string, req Req) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidArgument)
	}
	payload, err := r.opts.codec.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc: encode event for %q: %w", topic, err)
	}
	if err := r.pub.Publish(ctx, topic, envelope.Envelope{Payload: payload, EventType: r.eventType}); err != nil {
		return &PublishError{Topic: topic, Err: err}
	}
	metrics.Published(topic, "event")
	return nil
}

func (r *Requestor[Req, Resp]) loop(ctx context.Context) {
	defer close(r.done)
	for {
		env, err := r.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, broker.ErrClosed) {
				return
			}
			r.log.Warn("reply receive failed", zap.Error(err))
			if !sleepCtx(ctx, r.opts.backoff) {
				return
			}
			continue
		}
		r.dispatch(env)
	}
}

func (r *Requestor[Req, Resp]) dispatch(env envelope.Envelope) {
	id := env.CorrelationID
	if id == "" {
		metrics.Dropped(r.replyTopic, metrics.DropNoCorrelation)
		r.log.Warn("reply without correlation id dropped", zap.String("eventType", env.EventType))
		return
	}

	if env.IsError() {
		if !r.reg.Reject(id, &RemoteError{Message: env.Error}) {
			metrics.Dropped(r.replyTopic, metrics.DropUnmatched)
			r.log.Debug("error reply for unknown call", zap.String("correlationId", id))
		}
		return
	}

	var v Resp
	if err := r.opts.codec.Unmarshal(env.Payload, &v); err != nil {
		derr := &DecodeError{Topic: r.replyTopic, CorrelationID: id, Err: err}
		metrics.Dropped(r.replyTopic, metrics.DropDecode)
		r.log.Error("reply dropped", zap.String("correlationId", id), zap.String("eventType", env.EventType), zap.Error(derr))
		return
	}

	if !r.reg.Resolve(id, v) {
		// late reply after timeout, or a reply meant for another instance
		metrics.Dropped(r.replyTopic, metrics.DropUnmatched)
		r.log.Debug("reply for unknown call", zap.String("correlationId", id))
	}
}

// Close is Shutdown bounded by the configured shutdown timeout.
func (r *Requestor[Req, Resp]) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.shutdownTimeout)
	defer cancel()
	return r.Shutdown(ctx)
}

// Shutdown stops the reply loop, fails every pending call with ErrCancelled
// and closes both connections. Calling it again returns the first result.
func (r *Requestor[Req, Resp]) Shutdown(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.cancel()
		var errs []error
		select {
		case <-r.done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("rpc: reply loop on %q did not stop: %w", r.replyTopic, ctx.Err()))
		}
		if n := r.reg.CancelAll(ErrCancelled); n > 0 {
			r.log.Warn("pending calls cancelled by shutdown", zap.Int("count", n))
		}
		errs = append(errs, r.sub.Close(), r.pub.Close())
		r.closeErr = errors.Join(errs...)
		r.log.Info("requestor stopped")
	})
	return r.closeErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
