package domain

import (
	"fmt"
	"time"
)

// ActorRole identifies who is requesting an order mutation.
type ActorRole string

const (
	// RoleOperator is the platform operator with full transition authority.
	RoleOperator ActorRole = "operator"
	// RoleSupplier is a fulfilling party with restricted transition authority.
	RoleSupplier ActorRole = "supplier"
)

// Order is the fulfillment aggregate root. Status holds the raw stored value,
// which may be a legacy spelling; normalize before any transition check.
type Order struct {
	ID                 int64
	UserID             int64
	Status             string
	PaymentStatus      string
	PaymentMethod      string
	TotalAmount        int64
	DepositAmount      int64
	BalanceDue         int64
	CancellationReason *string
	CancelledAt        *time.Time
	DepositPaidAt      *time.Time
	FullPaidAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultOrderNumberPrefix is used when no prefix is configured.
const DefaultOrderNumberPrefix = "BB"

// Number renders the derived display order number. It is never stored.
func (o Order) Number(prefix string) string {
	if prefix == "" {
		prefix = DefaultOrderNumberPrefix
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, o.CreatedAt.Year(), o.ID)
}

// OrderLineItem ties a quantity of one product to one order. LineTotal covers
// the entire quantity, not a single unit.
type OrderLineItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	SupplierID  int64
	Quantity    int64
	LineTotal   int64
}

// UnitPrice derives the per-unit price from the line total.
func (li OrderLineItem) UnitPrice() int64 {
	if li.Quantity <= 0 {
		return 0
	}
	return li.LineTotal / li.Quantity
}

// Product belongs to exactly one supplier. A nil Stock means stock is not
// tracked and is treated as zero for arithmetic.
type Product struct {
	ID         int64
	SupplierID int64
	Name       string
	Stock      *int64
}

// Supplier is a fulfilling party owning zero or more products.
type Supplier struct {
	ID   int64
	Name string
}

// Label renders a human-readable supplier name with a deterministic fallback.
func (s Supplier) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.ID > 0 {
		return fmt.Sprintf("Supplier #%d", s.ID)
	}
	return "Unknown supplier"
}

// Buyer carries the contact fields the listing engine searches and displays.
type Buyer struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Address is a buyer delivery address; supplier listings surface the default one.
type Address struct {
	ID        int64
	UserID    int64
	Line1     string
	City      string
	IsDefault bool
}

// Notification is an ephemeral in-app message addressed to a buyer. This core
// only writes notifications, it never reads them back.
type Notification struct {
	ID        string
	UserID    int64
	Title     string
	Body      string
	CreatedAt time.Time
}
