package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeName is the topic exchange every event is published to.
const ExchangeName = "tranche.events"

// Publisher sends one encoded outbox message to the message bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, routingKey, messageID string, body []byte) error

func (f PublisherFunc) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	return f(ctx, routingKey, messageID, body)
}

// LogPublisher logs messages instead of sending them. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, routingKey, messageID string, body []byte) error {
	p.logger.Info("outbox message",
		zap.String("routing_key", routingKey),
		zap.String("message_id", messageID),
		zap.ByteString("body", body),
	)
	return nil
}

// AMQPPublisher publishes persistent JSON messages to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url, opens a channel and declares the exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", ExchangeName, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: ExchangeName}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("publishing %s: connection closed", routingKey)
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
