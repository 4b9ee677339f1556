package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/messaging"
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/notify"
)

// Sender delivers a rendered email payload
type Sender interface {
	Send(payload *models.EmailPayload) error
}

// Subscriber consumes finalized-order events and performs the customer
// and owner notifications. Failures here never touch the archived order.
type Subscriber struct {
	consumer *messaging.Consumer
	mailer   Sender
	logger   *logger.Logger
}

// NewSubscriber creates a notification subscriber
func NewSubscriber(consumer *messaging.Consumer, mailer Sender, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		mailer:   mailer,
		logger:   log,
	}
}

// Start consumes until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	return s.consumer.StartConsuming(ctx, s.handleNotification)
}

// handleNotification processes one finalized-order event
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.OrderFinalizedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received finalized order", requestID, map[string]interface{}{
		"order_id":    msg.Order.OrderID,
		"grand_total": msg.Order.Totals.GrandTotal,
	})

	summary := notify.RenderSummaryText(&msg.Order)

	// Messaging channel: the rendered summary goes to the console, the
	// same place the original surfaced its WhatsApp text.
	text := models.TextPayload{To: msg.Order.Customer.Phone, BodyText: summary}
	fmt.Printf("[message to %s]\n%s\n", text.To, text.BodyText)

	if msg.Order.Customer.Email != "" {
		payload := &models.EmailPayload{
			To:         msg.Order.Customer.Email,
			Subject:    fmt.Sprintf("Your order %s is confirmed", msg.Order.OrderID),
			BodyText:   summary,
			Attachment: notify.RenderReceipt(&msg.Order),
			Filename:   fmt.Sprintf("receipt_%s.txt", msg.Order.OrderID),
		}
		if err := s.mailer.Send(payload); err != nil {
			// Best-effort: log and ack anyway.
			s.logger.Error("email_send_failed", "Failed to send customer email", requestID, err, map[string]interface{}{
				"order_id": msg.Order.OrderID,
				"to":       payload.To,
			})
		}
	}

	s.logger.Info("notification_dispatched", "Customer notified", requestID, map[string]interface{}{
		"order_id": msg.Order.OrderID,
	})

	return nil
}
