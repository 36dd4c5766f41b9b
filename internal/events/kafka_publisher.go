package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topic names consumed by downstream workers.
const (
	DefaultStatusTopic = "orders.status.changed"
	DefaultEmailTopic  = "notifications.email"
)

// StatusChangedEvent is the outbound record emitted after a committed status
// transition.
type StatusChangedEvent struct {
	EventID        string    `json:"eventId"`
	OrderID        int64     `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	Restocked      bool      `json:"restocked"`
	ActorRole      string    `json:"actorRole"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// EmailJob is queued for the mailer worker.
type EmailJob struct {
	EventID string `json:"eventId"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OrderID int64  `json:"orderId"`
}

// MessageWriter is the subset of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter builds a synchronous Kafka writer for one topic. Messages are
// keyed so records for one order stay ordered within a partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publisher writes order events and email jobs to their Kafka topics.
type Publisher struct {
	status  MessageWriter
	email   MessageWriter
	marshal func(any) ([]byte, error)
}

// NewPublisher constructs a Kafka backed event publisher.
func NewPublisher(status, email MessageWriter) (*Publisher, error) {
	if status == nil {
		return nil, errors.New("event publisher: status writer is required")
	}
	if email == nil {
		return nil, errors.New("event publisher: email writer is required")
	}
	return &Publisher{
		status:  status,
		email:   email,
		marshal: json.Marshal,
	}, nil
}

// PublishStatusChanged emits one status-changed record keyed by order id.
func (p *Publisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%d", event.OrderID)),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "eventId", Value: []byte(event.EventID)},
			{Key: "type", Value: []byte("order.status.changed")},
		},
	}
	if err := p.status.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

// PublishEmail enqueues one email job keyed by recipient.
func (p *Publisher) PublishEmail(ctx context.Context, job EmailJob) error {
	data, err := p.marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(job.To),
		Value: data,
		Headers: []kafka.Header{
			{Key: "eventId", Value: []byte(job.EventID)},
			{Key: "type", Value: []byte("notification.email")},
		},
	}
	if err := p.email.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}
