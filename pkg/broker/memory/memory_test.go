package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker"
	"github.com/joeydtaylor/steeze-rpc/pkg/broker/memory"
	"github.com/joeydtaylor/steeze-rpc/pkg/envelope"
)

func publish(t *testing.T, b *memory.Broker, topic string, payload string) {
	t.Helper()
	p, _ := b.NewPublisher()
	defer p.Close()
	if err := p.Publish(context.Background(), topic, envelope.Envelope{Payload: []byte(payload)}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestDistinctGroupsEachSeeEveryMessage(t *testing.T) {
	b := memory.New()
	s1, _ := b.NewSubscriber("orders", "g1")
	s2, _ := b.NewSubscriber("orders", "g2")
	publish(t, b, "orders", "m1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, s := range []broker.Subscriber{s1, s2} {
		env, err := s.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if string(env.Payload) != "m1" {
			t.Fatalf("payload = %q", env.Payload)
		}
	}
}

func TestSameGroupSharesOffsets(t *testing.T) {
	b := memory.New()
	s1, _ := b.NewSubscriber("orders", "g")
	s2, _ := b.NewSubscriber("orders", "g")
	publish(t, b, "orders", "m1")
	publish(t, b, "orders", "m2")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, _ := s1.Receive(ctx)
	c, _ := s2.Receive(ctx)
	if string(a.Payload) == string(c.Payload) {
		t.Fatalf("members of one group must not receive the same message")
	}
	if b.Lag("orders", "g") != 0 {
		t.Fatalf("expected no lag")
	}
}

func TestReceiveBlocksUntilPublish(t *testing.T) {
	b := memory.New()
	s, _ := b.NewSubscriber("t", "g")
	got := make(chan string, 1)
	go func() {
		env, err := s.Receive(context.Background())
		if err == nil {
			got <- string(env.Payload)
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("Receive returned early with %q", v)
	case <-time.After(20 * time.Millisecond):
	}
	publish(t, b, "t", "late")
	select {
	case v := <-got:
		if v != "late" {
			t.Fatalf("payload = %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("Receive did not wake up")
	}
}

func TestReceiveHonoursContextAndClose(t *testing.T) {
	b := memory.New()
	s, _ := b.NewSubscriber("t", "g")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Receive(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	s.Close()
	select {
	case err := <-done:
		if !errors.Is(err, broker.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Close did not unblock Receive")
	}
}

func TestFailPublishesAndRecords(t *testing.T) {
	b := memory.New()
	boom := errors.New("boom")
	b.FailPublishes(boom)
	p, _ := b.NewPublisher()
	if err := p.Publish(context.Background(), "t", envelope.Envelope{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	b.FailPublishes(nil)
	if err := p.Publish(context.Background(), "t", envelope.Envelope{CorrelationID: "c1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	recs := b.Records("t")
	if len(recs) != 1 || recs[0].CorrelationID != "c1" {
		t.Fatalf("unexpected records %+v", recs)
	}
	p.Close()
	if err := p.Publish(context.Background(), "t", envelope.Envelope{}); !errors.Is(err, broker.ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}

func TestCreateTopicsReportsExisting(t *testing.T) {
	b := memory.New(memory.WithoutAutoCreate())
	res, err := b.CreateTopics(context.Background(), broker.TopicSpec{Name: "a"}, broker.TopicSpec{Name: "b"})
	if err != nil {
		t.Fatalf("CreateTopics failed: %v", err)
	}
	if res["a"] != nil || res["b"] != nil {
		t.Fatalf("unexpected per-topic errors %v", res)
	}
	res, _ = b.CreateTopics(context.Background(), broker.TopicSpec{Name: "a"})
	if !errors.Is(res["a"], broker.ErrTopicExists) {
		t.Fatalf("expected ErrTopicExists, got %v", res["a"])
	}
	if _, err := b.NewSubscriber("missing", "g"); err == nil {
		t.Fatalf("expected unknown topic error without auto-create")
	}
	if got := b.Topics(); len(got) != 2 || got[0] != "a" {
		t.Fatalf("topics = %v", got)
	}
}
