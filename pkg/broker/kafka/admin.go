package kafka

import (
	"context"
	"errors"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
)

// Admin creates topics through the cluster controller.
type Admin struct {
	client *kafka.Client
	tr     *kafka.Transport
}

var _ broker.Admin = (*Admin)(nil)

func NewAdmin(t *Transport) *Admin {
	return &Admin{
		client: &kafka.Client{
			Addr:      kafka.TCP(t.cfg.Brokers...),
			Timeout:   t.cfg.DialTimeout,
			Transport: t.shared,
		},
		tr: t.shared,
	}
}

func (a *Admin) CreateTopics(ctx context.Context, specs ...broker.TopicSpec) (map[string]error, error) {
	req := &kafka.CreateTopicsRequest{Topics: make([]kafka.TopicConfig, 0, len(specs))}
	for _, s := range specs {
		req.Topics = append(req.Topics, kafka.TopicConfig{
			Topic:             s.Name,
			NumPartitions:     s.Partitions,
			ReplicationFactor: s.ReplicationFactor,
		})
	}
	resp, err := a.client.CreateTopics(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("kafka: create topics: %w", err)
	}
	out := make(map[string]error, len(specs))
	for _, s := range specs {
		out[s.Name] = translateTopicError(resp.Errors[s.Name])
	}
	return out, nil
}

func (a *Admin) Close() error {
	a.tr.CloseIdleConnections()
	return nil
}

func translateTopicError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kafka.TopicAlreadyExists) {
		return broker.ErrTopicExists
	}
	return err
}
