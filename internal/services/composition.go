package services

import (
	"sort"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

// OrderComposition describes which suppliers an order's line items resolve to,
// from the point of view of one supplier.
type OrderComposition struct {
	// SupplierIDs holds the distinct fulfilling parties, ascending.
	SupplierIDs   []int64
	IsSingleParty bool
	// CanManageStatus is true only when the order is single-party and the sole
	// party is the viewing supplier.
	CanManageStatus        bool
	ContainsOtherSuppliers bool
	// OwnItems is the viewing supplier's subset of line items.
	OwnItems  []domain.OrderLineItem
	Subtotal  int64
	ItemCount int64
}

// ResolveComposition enumerates the distinct fulfilling parties across the
// order's line items and derives the viewing supplier's authorization flags
// and subset aggregates.
func ResolveComposition(items []domain.OrderLineItem, supplierID int64) OrderComposition {
	seen := make(map[int64]struct{}, len(items))
	composition := OrderComposition{}
	for _, item := range items {
		if _, ok := seen[item.SupplierID]; !ok {
			seen[item.SupplierID] = struct{}{}
			composition.SupplierIDs = append(composition.SupplierIDs, item.SupplierID)
		}
		if item.SupplierID != supplierID {
			composition.ContainsOtherSuppliers = true
			continue
		}
		composition.OwnItems = append(composition.OwnItems, item)
		composition.Subtotal += item.LineTotal
		composition.ItemCount += item.Quantity
	}
	sort.Slice(composition.SupplierIDs, func(i, j int) bool {
		return composition.SupplierIDs[i] < composition.SupplierIDs[j]
	})
	composition.IsSingleParty = len(composition.SupplierIDs) == 1
	composition.CanManageStatus = composition.IsSingleParty && len(composition.OwnItems) > 0
	return composition
}
