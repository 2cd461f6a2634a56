package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ publishes each event type to a durable queue named after it,
// through the default exchange.
type RabbitMQ struct {
	conn *amqp.Connection
	log  *zap.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

func NewRabbitMQ(url string, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	for _, q := range []Type{BookingConfirmed, BookingCancelled} {
		if _, err := ch.QueueDeclare(
			string(q), // name
			true,      // durable
			false,     // autoDelete
			false,     // exclusive
			false,     // noWait
			nil,       // args
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	return &RabbitMQ{
		conn: conn,
		ch:   ch,
		log:  log.With(zap.String("publisher", "rabbitmq")),
	}, nil
}

func (p *RabbitMQ) Publish(ctx context.Context, event BookingEvent) error {
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",                 // default exchange
		string(event.Type), // routing key = queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.BookingID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Warn("Failed to publish event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID),
		)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *RabbitMQ) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil && !p.conn.IsClosed() {
		p.log.Warn("Failed to close channel", zap.Error(err))
	}
	return p.conn.Close()
}
