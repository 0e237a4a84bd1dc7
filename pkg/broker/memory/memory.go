// pkg/broker/memory/memory.go
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
)

// Broker is an in-process log broker. Each topic is a single append-only log;
// every consumer group keeps one committed offset per topic, so members of the
// same group share the stream and distinct groups each see every message.
// New groups start at the earliest offset.
type Broker struct {
	mu         sync.Mutex
	topics     map[string]*topic
	autoCreate bool
	publishErr error
}

type topic struct {
	spec   broker.TopicSpec
	log    []envelope.Envelope
	groups map[string]int
	notify chan struct{}
}

type Option func(*Broker)

// WithoutAutoCreate makes publish and subscribe fail on unknown topics.
func WithoutAutoCreate() Option { return func(b *Broker) { b.autoCreate = false } }

func New(opts ...Option) *Broker {
	b := &Broker{topics: map[string]*topic{}, autoCreate: true}
	for _, o := range opts {
		o(b)
	}
	return b
}

var _ broker.Transport = (*Broker)(nil)
var _ broker.Admin = (*Broker)(nil)

func (b *Broker) NewPublisher() (broker.Publisher, error) {
	return &publisher{b: b}, nil
}

func (b *Broker) NewSubscriber(topicName, group string) (broker.Subscriber, error) {
	if topicName == "" || group == "" {
		return nil, errors.New("memory: topic and group required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.topicLocked(topicName)
	if err != nil {
		return nil, err
	}
	if _, ok := t.groups[group]; !ok {
		t.groups[group] = 0
	}
	return &subscriber{b: b, topic: topicName, group: group, done: make(chan struct{})}, nil
}

// CreateTopics reports broker.ErrTopicExists for topics that are already present.
func (b *Broker) CreateTopics(ctx context.Context, specs ...broker.TopicSpec) (map[string]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]error, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			out[s.Name] = errors.New("memory: empty topic name")
			continue
		}
		if _, ok := b.topics[s.Name]; ok {
			out[s.Name] = broker.ErrTopicExists
			continue
		}
		b.topics[s.Name] = newTopic(s)
		out[s.Name] = nil
	}
	return out, nil
}

// Close is a no-op; the broker holds no external resources.
func (b *Broker) Close() error { return nil }

// FailPublishes makes every publish fail with err until called with nil.
func (b *Broker) FailPublishes(err error) {
	b.mu.Lock()
	b.publishErr = err
	b.mu.Unlock()
}

// Records returns a copy of everything published to a topic, in order.
func (b *Broker) Records(topicName string) []envelope.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topicName]
	if !ok {
		return nil
	}
	out := make([]envelope.Envelope, len(t.log))
	copy(out, t.log)
	return out
}

// Topics lists known topic names in sorted order.
func (b *Broker) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.topics))
	for n := range b.topics {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lag returns how many messages a group has not consumed yet.
func (b *Broker) Lag(topicName, group string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topicName]
	if !ok {
		return 0
	}
	return len(t.log) - t.groups[group]
}

func (b *Broker) append(topicName string, env envelope.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	t, err := b.topicLocked(topicName)
	if err != nil {
		return err
	}
	t.log = append(t.log, clone(env))
	close(t.notify)
	t.notify = make(chan struct{})
	return nil
}

func (b *Broker) topicLocked(name string) (*topic, error) {
	if t, ok := b.topics[name]; ok {
		return t, nil
	}
	if !b.autoCreate {
		return nil, fmt.Errorf("memory: unknown topic %q", name)
	}
	t := newTopic(broker.TopicSpec{Name: name, Partitions: 1, ReplicationFactor: 1})
	b.topics[name] = t
	return t, nil
}

func newTopic(s broker.TopicSpec) *topic {
	return &topic{spec: s, groups: map[string]int{}, notify: make(chan struct{})}
}

func clone(env envelope.Envelope) envelope.Envelope {
	out := env
	if env.Payload != nil {
		out.Payload = append([]byte(nil), env.Payload...)
	}
	if env.Headers != nil {
		out.Headers = make(map[string]string, len(env.Headers))
		for k, v := range env.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

type publisher struct {
	b      *Broker
	mu     sync.Mutex
	closed bool
}

func (p *publisher) Publish(ctx context.Context, topicName string, env envelope.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topicName == "" {
		return errors.New("memory: missing topic")
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return broker.ErrClosed
	}
	return p.b.append(topicName, env)
}

func (p *publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

type subscriber struct {
	b     *Broker
	topic string
	group string
	once  sync.Once
	done  chan struct{}
}

func (s *subscriber) Receive(ctx context.Context) (envelope.Envelope, error) {
	for {
		select {
		case <-s.done:
			return envelope.Envelope{}, broker.ErrClosed
		default:
		}

		s.b.mu.Lock()
		t, err := s.b.topicLocked(s.topic)
		if err != nil {
			s.b.mu.Unlock()
			return envelope.Envelope{}, err
		}
		off := t.groups[s.group]
		if off < len(t.log) {
			env := clone(t.log[off])
			t.groups[s.group] = off + 1
			s.b.mu.Unlock()
			return env, nil
		}
		wait := t.notify
		s.b.mu.Unlock()

		select {
		case <-ctx.Done():
			return envelope.Envelope{}, ctx.Err()
		case <-s.done:
			return envelope.Envelope{}, broker.ErrClosed
		case <-wait:
		}
	}
}

func (s *subscriber) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
