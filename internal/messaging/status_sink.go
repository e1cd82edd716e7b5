package messaging

import (
	"context"
	"time"

	"canteen-system/internal/logger"
	"canteen-system/internal/order"
)

// StatusSink publishes order lifecycle events to the status fanout exchange
// so display collaborators can follow preparation without polling. Publish
// failures are logged and dropped; a notification must never block or fail
// an order transition.
type StatusSink struct {
	publisher *Publisher
	logger    *logger.Logger
}

// NewStatusSink creates a sink backed by the given publisher.
func NewStatusSink(publisher *Publisher, log *logger.Logger) *StatusSink {
	return &StatusSink{
		publisher: publisher,
		logger:    log,
	}
}

// OrderStatusChanged publishes a status update message.
func (s *StatusSink) OrderStatusChanged(orderID string, oldStatus, newStatus order.Status, remaining time.Duration) {
	msg := StatusUpdateMessage{
		OrderID:     orderID,
		OldStatus:   string(oldStatus),
		NewStatus:   string(newStatus),
		RemainingMS: remaining.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}

	if err := s.publisher.PublishStatusUpdate(context.Background(), msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish status update", "", err, map[string]interface{}{
			"order_id":   orderID,
			"new_status": string(newStatus),
		})
	}
}

// OrderProgress publishes a preparation progress message.
func (s *StatusSink) OrderProgress(orderID string, status order.Status, remaining time.Duration) {
	msg := ProgressMessage{
		OrderID:     orderID,
		Status:      string(status),
		RemainingMS: remaining.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}

	if err := s.publisher.PublishStatusUpdate(context.Background(), msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish progress update", "", err, map[string]interface{}{
			"order_id": orderID,
		})
	}
}
