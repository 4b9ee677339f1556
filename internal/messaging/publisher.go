package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/models"
)

// Publisher publishes finalized-order notifications to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderFinalized fans a finalized order out to all subscribers.
// Delivery is best-effort from the caller's perspective; the order is
// already archived before this is attempted.
func (p *Publisher) PublishOrderFinalized(ctx context.Context, msg *models.OrderFinalizedMessage) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return models.ExternalServiceError{Service: "notifications", Err: err}
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		NotificationsExchange, // exchange
		"",                    // routing key
		false,                 // mandatory
		false,                 // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish notification for order %s", msg.Order.OrderID),
			"", err, map[string]interface{}{
				"exchange": NotificationsExchange,
				"order_id": msg.Order.OrderID,
			})
		return models.ExternalServiceError{Service: "notifications", Err: err}
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published notification for order %s", msg.Order.OrderID),
		"", map[string]interface{}{
			"exchange":     NotificationsExchange,
			"order_id":     msg.Order.OrderID,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
