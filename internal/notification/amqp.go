package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shareit/internal/events"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is satisfied by *amqp.Channel.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Message is the JSON body published for every booking event.
type Message struct {
	Type       string                     `json:"type"`
	Booking    events.BookingEventPayload `json:"booking"`
	OccurredAt time.Time                  `json:"occurred_at"`
}

// AMQPSink publishes booking events as persistent messages to a durable queue
// on the default exchange.
type AMQPSink struct {
	conn  *amqp.Connection
	ch    publisher
	queue string
	now   func() time.Time
}

// DialAMQP connects to url and declares queue.
func DialAMQP(url, queue string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare %s: %w", queue, err)
	}
	return &AMQPSink{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

func newAMQPSinkWithPublisher(p publisher, queue string, now func() time.Time) *AMQPSink {
	return &AMQPSink{ch: p, queue: queue, now: now}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Deliver(ctx context.Context, eventType string, booking events.BookingEventPayload) error {
	occurred := s.now().UTC()
	body, err := json.Marshal(Message{Type: eventType, Booking: booking, OccurredAt: occurred})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		Timestamp:    occurred,
		Body:         body,
	}
	if err := s.ch.PublishWithContext(ctx, "", s.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close closes the channel's connection, if this sink opened one.
func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
