package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	messages []kafka.Message
	err      error
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msgs...)
	return nil
}

func TestPublishStatusChanged(t *testing.T) {
	status := &captureWriter{}
	publisher, err := NewPublisher(status, &captureWriter{})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	event := StatusChangedEvent{
		EventID:        "01TESTID",
		OrderID:        1048,
		OrderNumber:    "BB-2025-1048",
		PreviousStatus: "shipped",
		Status:         "returned",
		Restocked:      true,
		ActorRole:      "operator",
		OccurredAt:     time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC),
	}
	if err := publisher.PublishStatusChanged(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(status.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(status.messages))
	}
	msg := status.messages[0]
	if string(msg.Key) != "order-1048" {
		t.Fatalf("unexpected key %q", msg.Key)
	}

	var decoded StatusChangedEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.Status != "returned" || !decoded.Restocked {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestPublishEmail(t *testing.T) {
	email := &captureWriter{}
	publisher, err := NewPublisher(&captureWriter{}, email)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if err := publisher.PublishEmail(context.Background(), EmailJob{
		EventID: "01TESTID",
		To:      "rahim@example.com",
		Subject: "Order BB-2025-1048 has been returned",
		Body:    "Your order BB-2025-1048 has been returned.",
		OrderID: 1048,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(email.messages) != 1 || string(email.messages[0].Key) != "rahim@example.com" {
		t.Fatalf("unexpected messages: %+v", email.messages)
	}
}

func TestPublishWrapsWriterErrors(t *testing.T) {
	failing := &captureWriter{err: errors.New("broker unavailable")}
	publisher, err := NewPublisher(failing, failing)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	if err := publisher.PublishStatusChanged(context.Background(), StatusChangedEvent{OrderID: 1}); err == nil {
		t.Fatal("expected an error from the failing writer")
	}
	if err := publisher.PublishEmail(context.Background(), EmailJob{To: "x@example.com"}); err == nil {
		t.Fatal("expected an error from the failing writer")
	}
}
