package services

import (
	"testing"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

func TestAllowedNextOperator(t *testing.T) {
	expected := map[domain.OrderStatus][]domain.OrderStatus{
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

	assertTransitionTable(t, domain.RoleOperator, expected)
}

func TestAllowedNextSupplier(t *testing.T) {
	expected := map[domain.OrderStatus][]domain.OrderStatus{
		domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
		domain.OrderStatusPlaced:         {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
		domain.OrderStatusConfirmed:      {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
		domain.OrderStatusProcessing:     {domain.OrderStatusShipped, domain.OrderStatusCancelled},
		domain.OrderStatusShipped:        {domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered},
		domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
		domain.OrderStatusDelivered:      {},
		domain.OrderStatusCancelled:      {},
		domain.OrderStatusReturned:       {},
	}

	assertTransitionTable(t, domain.RoleSupplier, expected)
}

// assertTransitionTable enumerates every (current, next) pair so additions to
// the canonical enum cannot silently widen a role's authority.
func assertTransitionTable(t *testing.T, role domain.ActorRole, expected map[domain.OrderStatus][]domain.OrderStatus) {
	t.Helper()

	for _, current := range domain.OrderStatuses {
		allowed := make(map[domain.OrderStatus]bool)
		for _, next := range expected[current] {
			allowed[next] = true
		}
		for _, next := range domain.OrderStatuses {
			actual := CanTransition(role, current, next)
			if actual != allowed[next] {
				t.Fatalf("role %s: %s -> %s: expected %v got %v", role, current, next, allowed[next], actual)
			}
		}
		if got := AllowedNext(role, current); len(got) != len(expected[current]) {
			t.Fatalf("role %s: %s: expected %d next statuses got %d", role, current, len(expected[current]), len(got))
		}
	}
}

func TestSupplierNeverReachesReturned(t *testing.T) {
	for _, current := range domain.OrderStatuses {
		if CanTransition(domain.RoleSupplier, current, domain.OrderStatusReturned) {
			t.Fatalf("supplier must not reach returned from %s", current)
		}
	}
}

func TestVoidStatesAreTerminal(t *testing.T) {
	for _, role := range []domain.ActorRole{domain.RoleOperator, domain.RoleSupplier} {
		for _, current := range []domain.OrderStatus{domain.OrderStatusCancelled, domain.OrderStatusReturned} {
			if got := AllowedNext(role, current); len(got) != 0 {
				t.Fatalf("role %s: expected no transitions out of %s, got %v", role, current, got)
			}
		}
	}
}
