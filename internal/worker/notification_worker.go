package worker

import (
	"go.uber.org/zap"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a
// broker publisher is supplied, forwards every event to it.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher events.Publisher, logger *zap.Logger) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && publisher != nil {
		events.Forward(dispatcher, publisher, logger)
	}
}
