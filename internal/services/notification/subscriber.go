// Package notification consumes the order status stream and renders it as
// human-readable console lines. It stands in for the display layer the core
// deliberately does not own.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteen-system/internal/logger"
	"canteen-system/internal/messaging"
)

// Subscriber handles order status notifications
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	// Graceful shutdown
	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start starts the notification subscriber
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleNotification); err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.gracefulShutdown(requestID)
	case <-s.done:
		return nil
	}
}

// statusEvent covers both message shapes on the status stream: transitions
// carry new_status, progress ticks carry status.
type statusEvent struct {
	OrderID     string    `json:"order_id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	Status      string    `json:"status"`
	RemainingMS int64     `json:"remaining_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// handleNotification processes one message from the status stream
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var event statusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	fmt.Println(s.formatNotification(&event))

	s.logger.Debug("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"order_id":   event.OrderID,
		"new_status": event.NewStatus,
	})

	return nil
}

// formatNotification creates a human-readable notification line
func (s *Subscriber) formatNotification(event *statusEvent) string {
	timestamp := event.Timestamp.Format("2006-01-02 15:04:05")

	if event.NewStatus == "" {
		// Progress tick
		remaining := time.Duration(event.RemainingMS) * time.Millisecond
		return fmt.Sprintf("[%s] Order %s: %s, about %v remaining", timestamp, event.OrderID, event.Status, remaining)
	}

	switch event.NewStatus {
	case "preparing":
		remaining := time.Duration(event.RemainingMS) * time.Millisecond
		return fmt.Sprintf("[%s] Order %s is being prepared, ready in about %v.", timestamp, event.OrderID, remaining)
	case "ready":
		return fmt.Sprintf("[%s] Order %s is ready for pickup!", timestamp, event.OrderID)
	case "cancelled":
		return fmt.Sprintf("[%s] Order %s has been cancelled.", timestamp, event.OrderID)
	default:
		return fmt.Sprintf("[%s] Order %s status changed from '%s' to '%s'.", timestamp, event.OrderID, event.OldStatus, event.NewStatus)
	}
}

// gracefulShutdown handles graceful shutdown of the subscriber
func (s *Subscriber) gracefulShutdown(requestID string) error {
	s.logger.Info("graceful_shutdown", "Starting graceful shutdown", requestID, nil)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.logger.Info("graceful_shutdown", "Graceful shutdown completed", requestID, nil)
	return nil
}
