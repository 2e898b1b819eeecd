package worker

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
)

type capturePublisher struct {
	keys []string
}

func (p *capturePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func TestWorkerNotifiesAndForwards(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	publisher := &capturePublisher{}
	notifications := service.NewNotificationService(dispatcher, logger, config.NotificationConfig{})

	StartNotificationWorker(dispatcher, notifications, publisher, logger)
	_ = dispatcher.Publish(context.Background(), events.Event{ID: "e-1", Type: events.EventTicketCreated, TicketID: "t-1"})

	if logs.FilterMessage("TicketCreated").Len() != 1 {
		t.Fatalf("expected one notification log, got %v", logs.All())
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != "helpdesk.ticket_created" {
		t.Fatalf("unexpected forwarded keys %v", publisher.keys)
	}
}

func TestWorkerWithoutBroker(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifications := service.NewNotificationService(dispatcher, nil, config.NotificationConfig{})
	StartNotificationWorker(dispatcher, notifications, nil, nil)

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventCommentAdded}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
