package events

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	r.keys = append(r.keys, routingKey)
	return r.err
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	calls := 0
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return errors.New("first fails")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestForwardUsesPrefixedRoutingKey(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	publisher := &recordingPublisher{}
	Forward(d, publisher, nil)

	_ = d.Publish(context.Background(), Event{Type: EventCommentAdded})
	_ = d.Publish(context.Background(), Event{Type: EventHandoverReviewed})

	if len(publisher.keys) != 2 || publisher.keys[0] != "helpdesk.comment_added" || publisher.keys[1] != "helpdesk.handover_reviewed" {
		t.Fatalf("unexpected routing keys %v", publisher.keys)
	}
}

func TestForwardSwallowsBrokerFailures(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	Forward(d, &recordingPublisher{err: errors.New("down")}, nil)
	if err := d.Publish(context.Background(), Event{Type: EventTicketUpdated}); err != nil {
		t.Fatalf("broker failure must not surface: %v", err)
	}
}
