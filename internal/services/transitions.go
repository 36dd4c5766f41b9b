package services

import (
	"slices"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

// The transition tables are kept as data so every (role, status) pair can be
// enumerated exhaustively in tests. Statuses absent from a table have an empty
// allowed set.

var operatorTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:        {domain.OrderStatusPlaced, domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusPlaced:         {domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:      {domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing:     {domain.OrderStatusShipped, domain.OrderStatusOutForDelivery, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:        {domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered, domain.OrderStatusCancelled, domain.OrderStatusReturned},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered, domain.OrderStatusCancelled, domain.OrderStatusReturned},
	domain.OrderStatusDelivered:      {domain.OrderStatusReturned},
	domain.OrderStatusCancelled:      {},
	domain.OrderStatusReturned:       {},
}

// Suppliers cannot issue returns and cannot cancel once the order has shipped.
var supplierTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusPlaced:         {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:      {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing:     {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:        {domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
}

// AllowedNext returns the legal next statuses for the acting role from the
// given canonical status. The returned slice must not be mutated.
func AllowedNext(role domain.ActorRole, current domain.OrderStatus) []domain.OrderStatus {
	switch role {
	case domain.RoleOperator:
		return operatorTransitions[current]
	case domain.RoleSupplier:
		return supplierTransitions[current]
	default:
		return nil
	}
}

// CanTransition reports whether the role may move an order from current to
// next. A same-status request is not a transition and returns false here; the
// caller treats it as an idempotent no-op before consulting the table.
func CanTransition(role domain.ActorRole, current, next domain.OrderStatus) bool {
	return slices.Contains(AllowedNext(role, current), next)
}
