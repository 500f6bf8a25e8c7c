package queue_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/queue"
)

func newOrgCreated() event.Event {
	id := ids.New()
	return event.Event{
		Envelope: event.Envelope{EventID: ids.New(), AggregateID: id, CorrelationID: ids.New(), CausationID: ids.New()},
		Kind:     event.KindOrganizationCreated,
		Payload:  event.OrganizationCreated{OrganizationID: id, Name: "cowboyai"},
	}
}

type recordingPublisher struct {
	published  []event.Event
	failAfter  int
	alwaysFail bool
}

func (p *recordingPublisher) Publish(ctx context.Context, ev event.Event) error {
	if p.alwaysFail || (p.failAfter > 0 && len(p.published) >= p.failAfter) {
		return context.DeadlineExceeded
	}
	p.published = append(p.published, ev)
	return nil
}

func TestEnqueueThenDrainDeliversInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	q, err := queue.Open(path)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	defer q.Close()

	first := newOrgCreated()
	second := newOrgCreated()
	if err := q.Enqueue(first); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if err := q.Enqueue(second); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 2 {
		t.Fatalf("expected 2 pending events, got %d", pending)
	}

	pub := &recordingPublisher{}
	if err := q.Drain(context.Background(), pub); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("expected 2 events delivered, got %d", len(pub.published))
	}
	if pub.published[0].EventID != first.EventID || pub.published[1].EventID != second.EventID {
		t.Fatal("expected events delivered in enqueue order")
	}

	pending, err = q.Pending()
	if err != nil {
		t.Fatalf("pending after drain: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected queue empty after a full drain, got %d pending", pending)
	}
}

func TestDrainStopsAtFirstFailureAndRetainsTheRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	q, err := queue.Open(path)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	defer q.Close()

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(newOrgCreated()); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	pub := &recordingPublisher{failAfter: 1}
	if err := q.Drain(context.Background(), pub); err == nil {
		t.Fatal("expected drain to report the publisher's failure")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected exactly 1 event delivered before the failure, got %d", len(pub.published))
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 2 {
		t.Fatalf("expected 2 undelivered events retained after a partial drain, got %d", pending)
	}

	// Reopening against the same path must see the retained, undelivered tail.
	q2, err := queue.Open(path)
	if err != nil {
		t.Fatalf("reopen queue: %v", err)
	}
	defer q2.Close()
	pending2, err := q2.Pending()
	if err != nil {
		t.Fatalf("pending on reopen: %v", err)
	}
	if pending2 != 2 {
		t.Fatalf("expected 2 events to survive reopening the queue file, got %d", pending2)
	}
}

func TestEnqueueAfterPartialDrainAppendsPastTheRetainedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")
	q, err := queue.Open(path)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	defer q.Close()

	if err := q.Enqueue(newOrgCreated()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Drain with a publisher that fails immediately, retaining the one entry.
	alwaysFails := &recordingPublisher{alwaysFail: true}
	if err := q.Drain(context.Background(), alwaysFails); err == nil {
		t.Fatal("expected drain against an always-failing publisher to report an error")
	}

	if err := q.Enqueue(newOrgCreated()); err != nil {
		t.Fatalf("enqueue after partial drain: %v", err)
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 2 {
		t.Fatalf("expected original retained entry plus the new one, got %d", pending)
	}
}
