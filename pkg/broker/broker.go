// pkg/broker/broker.go
package broker

import (
	"context"

	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
)

// Publisher appends envelopes to topics. Failures are reported synchronously.
type Publisher interface {
	Publish(ctx context.Context, topic string, env envelope.Envelope) error
	Close() error
}

// Subscriber yields the envelopes of one topic for one consumer group.
// Receive blocks until a message arrives or ctx is done.
type Subscriber interface {
	Receive(ctx context.Context) (envelope.Envelope, error)
	Close() error
}

// Transport opens publish/subscribe connections. Each connection it returns
// is owned by exactly one caller.
type Transport interface {
	NewPublisher() (Publisher, error)
	NewSubscriber(topic, group string) (Subscriber, error)
}

// TopicSpec describes a topic to create.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// Admin creates topics. The returned map holds one entry per requested topic
// (nil on success); the error is for request-level failures.
type Admin interface {
	CreateTopics(ctx context.Context, specs ...TopicSpec) (map[string]error, error)
	Close() error
}

var (
	// ErrTopicExists is reported per topic by Admin.CreateTopics.
	ErrTopicExists = errorString("broker: topic already exists")
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errorString("broker: connection closed")
)

type errorString string

func (e errorString) Error() string { return string(e) }
