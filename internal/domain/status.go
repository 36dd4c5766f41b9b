package domain

import (
	"sort"
	"strings"
)

// OrderStatus enumerates the canonical fulfillment lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was placed but not yet acknowledged.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPlaced indicates the order has been registered for fulfillment.
	OrderStatusPlaced OrderStatus = "placed"
	// OrderStatusConfirmed indicates the fulfilling party accepted the order.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order left the fulfilling party.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusOutForDelivery indicates the order is on its final delivery leg.
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	// OrderStatusDelivered indicates the buyer received the order.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was voided before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusReturned indicates the delivered order was sent back.
	OrderStatusReturned OrderStatus = "returned"
)

// OrderStatuses lists every canonical status in rough lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

var canonicalStatuses = func() map[OrderStatus]struct{} {
	set := make(map[OrderStatus]struct{}, len(OrderStatuses))
	for _, status := range OrderStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Stored statuses may come from legacy rows or external imports; these aliases
// fold the known historical spellings onto the canonical enum.
var legacyStatusAliases = map[string]OrderStatus{
	"in_progress":      OrderStatusProcessing,
	"completed":        OrderStatusDelivered,
	"complete":         OrderStatusDelivered,
	"refund_processed": OrderStatusReturned,
}

// ParseOrderStatus matches raw input against the canonical enum, case-insensitively.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := canonicalStatuses[status]; !ok {
		return "", false
	}
	return status, true
}

// NormalizeOrderStatus maps an arbitrary stored status string onto the canonical
// enum. Unrecognized values default to pending. Must be applied before any
// transition check.
func NormalizeOrderStatus(raw string) OrderStatus {
	if status, ok := ParseOrderStatus(raw); ok {
		return status
	}
	if status, ok := legacyStatusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return OrderStatusPending
}

// StatusSpellings returns the stored spellings (the canonical value plus any
// legacy aliases) that normalize to the given canonical status.
func StatusSpellings(status OrderStatus) []string {
	spellings := []string{string(status)}
	for alias, canonical := range legacyStatusAliases {
		if canonical == status {
			spellings = append(spellings, alias)
		}
	}
	sort.Strings(spellings)
	return spellings
}

// KnownStatusSpellings returns every spelling the normalizer recognizes.
func KnownStatusSpellings() []string {
	spellings := make([]string, 0, len(OrderStatuses)+len(legacyStatusAliases))
	for _, status := range OrderStatuses {
		spellings = append(spellings, string(status))
	}
	for alias := range legacyStatusAliases {
		spellings = append(spellings, alias)
	}
	sort.Strings(spellings)
	return spellings
}

// IsVoid reports whether the status is terminal: no further fulfillment progress
// occurs and stock reconciliation is triggered on first entry.
func (s OrderStatus) IsVoid() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// StatusGroup buckets canonical statuses for listing badge counts.
type StatusGroup string

const (
	// StatusGroupActive covers every status still progressing toward delivery.
	StatusGroupActive StatusGroup = "active"
	// StatusGroupCompleted covers successfully delivered orders.
	StatusGroupCompleted StatusGroup = "completed"
	// StatusGroupCancelled covers void states.
	StatusGroupCancelled StatusGroup = "cancelled"
)

// GroupFor returns the summary group a canonical status belongs to. The groups
// are disjoint and exhaustive over the enum.
func GroupFor(status OrderStatus) StatusGroup {
	switch status {
	case OrderStatusDelivered:
		return StatusGroupCompleted
	case OrderStatusCancelled, OrderStatusReturned:
		return StatusGroupCancelled
	default:
		return StatusGroupActive
	}
}

// PaymentEventType enumerates payment events coordinated with fulfillment status.
type PaymentEventType string

const (
	// PaymentEventDepositPaid records a partial upfront payment.
	PaymentEventDepositPaid PaymentEventType = "deposit_paid"
	// PaymentEventFullPaid records full payment, held in escrow until delivery.
	PaymentEventFullPaid PaymentEventType = "full_paid"
	// PaymentEventEscrowHold updates payment status without touching fulfillment.
	PaymentEventEscrowHold PaymentEventType = "escrow_hold"
)

// ParsePaymentEventType validates a raw payment event value.
func ParsePaymentEventType(raw string) (PaymentEventType, bool) {
	switch event := PaymentEventType(strings.ToLower(strings.TrimSpace(raw))); event {
	case PaymentEventDepositPaid, PaymentEventFullPaid, PaymentEventEscrowHold:
		return event, true
	default:
		return "", false
	}
}

// PaymentStatusEscrowHold is the payment status recorded once full payment is
// held pending delivery.
const PaymentStatusEscrowHold = "escrow_hold"

// PaymentStatusDepositPaid is the payment status recorded after a deposit event.
const PaymentStatusDepositPaid = "deposit_paid"
