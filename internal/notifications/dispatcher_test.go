package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/events"
	"github.com/borobepari/marketplace-api/internal/services"
)

type captureNotificationRepo struct {
	inserted []domain.Notification
	err      error
}

func (c *captureNotificationRepo) Insert(_ context.Context, notification domain.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.inserted = append(c.inserted, notification)
	return nil
}

type stubPartyRepo struct {
	buyers map[int64]domain.Buyer
	err    error
}

func (s *stubPartyRepo) GetBuyers(context.Context, []int64) (map[int64]domain.Buyer, error) {
	return s.buyers, s.err
}

func (s *stubPartyRepo) DefaultAddresses(context.Context, []int64) (map[int64]domain.Address, error) {
	return map[int64]domain.Address{}, nil
}

func (s *stubPartyRepo) GetSuppliers(context.Context, []int64) (map[int64]domain.Supplier, error) {
	return map[int64]domain.Supplier{}, nil
}

type captureSink struct {
	statusEvents []events.StatusChangedEvent
	emails       []events.EmailJob
	statusErr    error
	emailErr     error
}

func (c *captureSink) PublishStatusChanged(_ context.Context, event events.StatusChangedEvent) error {
	if c.statusErr != nil {
		return c.statusErr
	}
	c.statusEvents = append(c.statusEvents, event)
	return nil
}

func (c *captureSink) PublishEmail(_ context.Context, job events.EmailJob) error {
	if c.emailErr != nil {
		return c.emailErr
	}
	c.emails = append(c.emails, job)
	return nil
}

func sampleChange() services.StatusChange {
	reason := "out of stock"
	return services.StatusChange{
		Order: domain.Order{
			ID:                 12,
			UserID:             7,
			Status:             "cancelled",
			CancellationReason: &reason,
			CreatedAt:          time.Date(2025, time.January, 9, 8, 0, 0, 0, time.UTC),
		},
		OrderNumber:    "BB-2025-0012",
		PreviousStatus: domain.OrderStatusPending,
		Status:         domain.OrderStatusCancelled,
		ActorRole:      domain.RoleOperator,
		OccurredAt:     time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC),
	}
}

func newDispatcher(t *testing.T, deps DispatcherDeps) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(deps)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return dispatcher
}

func TestNotifyStatusChangedFansOut(t *testing.T) {
	repo := &captureNotificationRepo{}
	sink := &captureSink{}
	parties := &stubPartyRepo{buyers: map[int64]domain.Buyer{7: {ID: 7, Email: "rahim@example.com"}}}

	dispatcher := newDispatcher(t, DispatcherDeps{
		Notifications: repo,
		Parties:       parties,
		Events:        sink,
		IDGenerator:   func() string { return "01TESTID" },
	})

	if err := dispatcher.NotifyStatusChanged(context.Background(), sampleChange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected one in-app notification, got %d", len(repo.inserted))
	}
	inApp := repo.inserted[0]
	if inApp.UserID != 7 || !strings.Contains(inApp.Title, "BB-2025-0012") {
		t.Fatalf("unexpected notification: %+v", inApp)
	}
	if !strings.Contains(inApp.Body, "Reason: out of stock") {
		t.Fatalf("cancellation body must carry the reason: %q", inApp.Body)
	}

	if len(sink.emails) != 1 || sink.emails[0].To != "rahim@example.com" {
		t.Fatalf("unexpected email jobs: %+v", sink.emails)
	}
	if len(sink.statusEvents) != 1 {
		t.Fatalf("expected one status event, got %d", len(sink.statusEvents))
	}
	event := sink.statusEvents[0]
	if event.PreviousStatus != "pending" || event.Status != "cancelled" || event.OrderID != 12 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestNotifyStatusChangedSurvivesFailures(t *testing.T) {
	repo := &captureNotificationRepo{err: errors.New("insert failed")}
	sink := &captureSink{emailErr: errors.New("kafka down")}
	parties := &stubPartyRepo{buyers: map[int64]domain.Buyer{7: {ID: 7, Email: "rahim@example.com"}}}

	var logged []string
	dispatcher := newDispatcher(t, DispatcherDeps{
		Notifications: repo,
		Parties:       parties,
		Events:        sink,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})

	if err := dispatcher.NotifyStatusChanged(context.Background(), sampleChange()); err != nil {
		t.Fatalf("fan-out must swallow effect failures: %v", err)
	}

	// The status event still goes out after the earlier effects failed.
	if len(sink.statusEvents) != 1 {
		t.Fatalf("expected the status event despite earlier failures, got %d", len(sink.statusEvents))
	}
	for _, expected := range []string{"notification.insert.failed", "notification.email.failed"} {
		found := false
		for _, event := range logged {
			if event == expected {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %s to be logged, got %v", expected, logged)
		}
	}
}

func TestNotifyStatusChangedWithoutBuyerEmail(t *testing.T) {
	repo := &captureNotificationRepo{}
	sink := &captureSink{}

	dispatcher := newDispatcher(t, DispatcherDeps{
		Notifications: repo,
		Parties:       &stubPartyRepo{buyers: map[int64]domain.Buyer{}},
		Events:        sink,
	})

	if err := dispatcher.NotifyStatusChanged(context.Background(), sampleChange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.emails) != 0 {
		t.Fatalf("no email expected without an address, got %+v", sink.emails)
	}
	if len(repo.inserted) != 1 || len(sink.statusEvents) != 1 {
		t.Fatal("in-app notification and status event must still be emitted")
	}
}
