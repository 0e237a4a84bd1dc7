// pkg/broker/kafka/transport.go
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
)

// Transport opens kafka-go writers and consumer-group readers.
type Transport struct {
	cfg      Config
	tls      *tls.Config
	mech     sasl.Mechanism
	balancer kafka.Balancer
	shared   *kafka.Transport
	log      *zap.Logger
}

var _ broker.Transport = (*Transport)(nil)

func New(cfg Config, log *zap.Logger) (*Transport, error) {
	cfg.Normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}
	mech, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}
	bal, err := cfg.balancer()
	if err != nil {
		return nil, err
	}
	return &Transport{
		cfg:      cfg,
		tls:      tlsCfg,
		mech:     mech,
		balancer: bal,
		shared: &kafka.Transport{
			ClientID:    cfg.ClientID,
			DialTimeout: cfg.DialTimeout,
			TLS:         tlsCfg,
			SASL:        mech,
		},
		log: log,
	}, nil
}

// NewPublisher returns a writer that is not bound to a topic; every message names its own.
func (t *Transport) NewPublisher() (broker.Publisher, error) {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(t.cfg.Brokers...),
		Balancer:               t.balancer,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           t.cfg.BatchTimeout,
		WriteTimeout:           t.cfg.WriteTimeout,
		Transport:              t.shared,
		ErrorLogger:            kafka.LoggerFunc(t.log.Sugar().Named("kafka-writer").Errorf),
	}
	return &publisher{w: w}, nil
}

// NewSubscriber joins group on topic. Offsets are committed as messages are read.
func (t *Transport) NewSubscriber(topic, group string) (broker.Subscriber, error) {
	if topic == "" || group == "" {
		return nil, errors.New("kafka: topic and group required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        t.cfg.Brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       t.cfg.MinBytes,
		MaxBytes:       t.cfg.MaxBytes,
		MaxWait:        t.cfg.MaxWait,
		StartOffset:    t.cfg.startOffset(),
		CommitInterval: t.cfg.CommitInterval,
		SessionTimeout: t.cfg.SessionTimeout,
		Dialer:         t.dialer(),
		ErrorLogger:    kafka.LoggerFunc(t.log.Sugar().Named("kafka-reader").Errorf),
	})
	return &subscriber{r: r}, nil
}

func (t *Transport) dialer() *kafka.Dialer {
	return &kafka.Dialer{
		ClientID:      t.cfg.ClientID,
		Timeout:       t.cfg.DialTimeout,
		DualStack:     true,
		TLS:           t.tls,
		SASLMechanism: t.mech,
	}
}

type publisher struct{ w *kafka.Writer }

func (p *publisher) Publish(ctx context.Context, topic string, env envelope.Envelope) error {
	if topic == "" {
		return errors.New("kafka: missing topic")
	}
	err := p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Value:   env.Payload,
		Headers: toKafkaHeaders(env.HeaderList()),
	})
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

func (p *publisher) Close() error { return p.w.Close() }

type subscriber struct{ r *kafka.Reader }

func (s *subscriber) Receive(ctx context.Context) (envelope.Envelope, error) {
	m, err := s.r.ReadMessage(ctx)
	if err != nil {
		return envelope.Envelope{}, err
	}
	return envelope.FromHeaders(m.Value, fromKafkaHeaders(m.Headers)), nil
}

func (s *subscriber) Close() error { return s.r.Close() }

func toKafkaHeaders(hs []envelope.Header) []kafka.Header {
	if len(hs) == 0 {
		return nil
	}
	out := make([]kafka.Header, len(hs))
	for i, h := range hs {
		out[i] = kafka.Header{Key: h.Key, Value: h.Value}
	}
	return out
}

func fromKafkaHeaders(hs []kafka.Header) []envelope.Header {
	out := make([]envelope.Header, len(hs))
	for i, h := range hs {
		out[i] = envelope.Header{Key: h.Key, Value: h.Value}
	}
	return out
}
