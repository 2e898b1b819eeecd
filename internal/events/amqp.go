package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RoutingKeyPrefix namespaces helpdesk events on the exchange.
const RoutingKeyPrefix = "helpdesk."

// Publisher sends a serialized payload to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AMQPPublisher publishes JSON events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Publish serializes the payload to JSON and sends it to the exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
}

// Close terminates the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil && p.logger != nil {
		p.logger.Warn("close amqp channel", zap.Error(err))
	}
	return p.conn.Close()
}

// Forward subscribes publisher to every event on d. Each event is sent once
// with routing key helpdesk.<event_type>; failures are logged and dropped.
func Forward(d Dispatcher, publisher Publisher, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	SubscribeAll(d, func(ctx context.Context, event Event) error {
		if err := publisher.Publish(ctx, RoutingKeyPrefix+string(event.Type), event); err != nil {
			logger.Error("forward event to broker",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
		return nil
	})
}
