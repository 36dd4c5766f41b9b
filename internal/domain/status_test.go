package domain

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestNormalizeOrderStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want OrderStatus
	}{
		{"pending", OrderStatusPending},
		{"Shipped", OrderStatusShipped},
		{"OUT_FOR_DELIVERY", OrderStatusOutForDelivery},
		{"  delivered ", OrderStatusDelivered},
		{"in_progress", OrderStatusProcessing},
		{"completed", OrderStatusDelivered},
		{"Complete", OrderStatusDelivered},
		{"refund_processed", OrderStatusReturned},
		{"", OrderStatusPending},
		{"garbage", OrderStatusPending},
		{"CANCELLED", OrderStatusCancelled},
	}

	for _, tc := range cases {
		if got := NormalizeOrderStatus(tc.raw); got != tc.want {
			t.Fatalf("NormalizeOrderStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestParseOrderStatusRejectsAliases(t *testing.T) {
	if _, ok := ParseOrderStatus("in_progress"); ok {
		t.Fatalf("expected legacy alias to be rejected by strict parse")
	}
	if status, ok := ParseOrderStatus("Returned"); !ok || status != OrderStatusReturned {
		t.Fatalf("expected case-insensitive canonical match, got %q ok=%v", status, ok)
	}
}

func TestIsVoid(t *testing.T) {
	for _, status := range OrderStatuses {
		want := status == OrderStatusCancelled || status == OrderStatusReturned
		if got := status.IsVoid(); got != want {
			t.Fatalf("IsVoid(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestGroupForIsExhaustiveAndDisjoint(t *testing.T) {
	counts := map[StatusGroup]int{}
	for _, status := range OrderStatuses {
		counts[GroupFor(status)]++
	}
	if counts[StatusGroupActive] != 6 {
		t.Fatalf("expected 6 active statuses, got %d", counts[StatusGroupActive])
	}
	if counts[StatusGroupCompleted] != 1 {
		t.Fatalf("expected 1 completed status, got %d", counts[StatusGroupCompleted])
	}
	if counts[StatusGroupCancelled] != 2 {
		t.Fatalf("expected 2 cancelled statuses, got %d", counts[StatusGroupCancelled])
	}
}

func TestOrderNumberFormat(t *testing.T) {
	order := Order{ID: 48, CreatedAt: mustTime(t, "2025-03-04T10:00:00Z")}
	if got := order.Number("BB"); got != "BB-2025-0048" {
		t.Fatalf("unexpected order number %s", got)
	}
	wide := Order{ID: 123456, CreatedAt: mustTime(t, "2026-01-01T00:00:00Z")}
	if got := wide.Number("BB"); got != "BB-2026-123456" {
		t.Fatalf("expected padding to widen for large ids, got %s", got)
	}
}

func TestSupplierLabelFallbacks(t *testing.T) {
	if got := (Supplier{ID: 7, Name: "Dhaka Textiles"}).Label(); got != "Dhaka Textiles" {
		t.Fatalf("unexpected label %s", got)
	}
	if got := (Supplier{ID: 7}).Label(); got != "Supplier #7" {
		t.Fatalf("unexpected fallback label %s", got)
	}
	if got := (Supplier{}).Label(); got != "Unknown supplier" {
		t.Fatalf("unexpected empty label %s", got)
	}
}

func TestUnitPriceDerivation(t *testing.T) {
	item := OrderLineItem{Quantity: 4, LineTotal: 1000}
	if got := item.UnitPrice(); got != 250 {
		t.Fatalf("unit price = %d, want 250", got)
	}
	zero := OrderLineItem{Quantity: 0, LineTotal: 1000}
	if got := zero.UnitPrice(); got != 0 {
		t.Fatalf("unit price for zero quantity = %d, want 0", got)
	}
}
