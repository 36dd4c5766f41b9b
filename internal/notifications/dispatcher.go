package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/events"
	"github.com/borobepari/marketplace-api/internal/repositories"
	"github.com/borobepari/marketplace-api/internal/services"
)

// EventSink is the outbound side of the dispatcher.
type EventSink interface {
	PublishStatusChanged(ctx context.Context, event events.StatusChangedEvent) error
	PublishEmail(ctx context.Context, job events.EmailJob) error
}

// DispatcherDeps bundles collaborators for the notification dispatcher.
type DispatcherDeps struct {
	Notifications repositories.NotificationRepository
	Parties       repositories.PartyRepository
	Events        EventSink
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

// Dispatcher fans a committed status change out to the buyer's in-app feed,
// the email queue, and the status event topic. Every effect is best-effort:
// failures are logged and the remaining effects still run.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	parties       repositories.PartyRepository
	events        EventSink
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewDispatcher wires dependencies into a Dispatcher.
func NewDispatcher(deps DispatcherDeps) (*Dispatcher, error) {
	if deps.Notifications == nil {
		return nil, errors.New("notification dispatcher: notification repository is required")
	}
	if deps.Parties == nil {
		return nil, errors.New("notification dispatcher: party repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &Dispatcher{
		notifications: deps.Notifications,
		parties:       deps.Parties,
		events:        deps.Events,
		clock:         clock,
		newID:         idGen,
		logger:        logger,
	}, nil
}

// NotifyStatusChanged implements services.TransitionNotifier.
func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, change services.StatusChange) error {
	title, body := renderStatusMessage(change)

	if err := d.notifications.Insert(ctx, domain.Notification{
		ID:        d.newID(),
		UserID:    change.Order.UserID,
		Title:     title,
		Body:      body,
		CreatedAt: d.clock().UTC(),
	}); err != nil {
		d.logger(ctx, "notification.insert.failed", map[string]any{
			"order": change.Order.ID,
			"user":  change.Order.UserID,
			"error": err.Error(),
		})
	}

	if d.events == nil {
		return nil
	}

	if email := d.buyerEmail(ctx, change.Order.UserID); email != "" {
		if err := d.events.PublishEmail(ctx, events.EmailJob{
			EventID: d.newID(),
			To:      email,
			Subject: title,
			Body:    body,
			OrderID: change.Order.ID,
		}); err != nil {
			d.logger(ctx, "notification.email.failed", map[string]any{
				"order": change.Order.ID,
				"error": err.Error(),
			})
		}
	}

	if err := d.events.PublishStatusChanged(ctx, events.StatusChangedEvent{
		EventID:        d.newID(),
		OrderID:        change.Order.ID,
		OrderNumber:    change.OrderNumber,
		PreviousStatus: string(change.PreviousStatus),
		Status:         string(change.Status),
		Restocked:      change.Restocked,
		ActorRole:      string(change.ActorRole),
		OccurredAt:     change.OccurredAt,
	}); err != nil {
		d.logger(ctx, "notification.event.failed", map[string]any{
			"order": change.Order.ID,
			"error": err.Error(),
		})
	}

	return nil
}

func (d *Dispatcher) buyerEmail(ctx context.Context, userID int64) string {
	buyers, err := d.parties.GetBuyers(ctx, []int64{userID})
	if err != nil {
		d.logger(ctx, "notification.buyer.lookup.failed", map[string]any{
			"user":  userID,
			"error": err.Error(),
		})
		return ""
	}
	return buyers[userID].Email
}

var statusPhrases = map[domain.OrderStatus]string{
	domain.OrderStatusPending:        "is awaiting confirmation",
	domain.OrderStatusPlaced:         "has been placed",
	domain.OrderStatusConfirmed:      "has been confirmed",
	domain.OrderStatusProcessing:     "is being processed",
	domain.OrderStatusShipped:        "has been shipped",
	domain.OrderStatusOutForDelivery: "is out for delivery",
	domain.OrderStatusDelivered:      "has been delivered",
	domain.OrderStatusCancelled:      "has been cancelled",
	domain.OrderStatusReturned:       "has been returned",
}

func renderStatusMessage(change services.StatusChange) (title, body string) {
	phrase, ok := statusPhrases[change.Status]
	if !ok {
		phrase = fmt.Sprintf("moved to %s", change.Status)
	}
	title = fmt.Sprintf("Order %s %s", change.OrderNumber, phrase)
	body = fmt.Sprintf("Your order %s %s.", change.OrderNumber, phrase)
	if change.Status == domain.OrderStatusCancelled && change.Order.CancellationReason != nil {
		body = fmt.Sprintf("%s Reason: %s", body, *change.Order.CancellationReason)
	}
	return title, body
}
