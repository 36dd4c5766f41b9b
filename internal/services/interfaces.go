package services

import (
	"context"
	"time"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

type (
	// OrderStatusService applies fulfillment status transitions and payment
	// events to orders.
	OrderStatusService interface {
		Transition(ctx context.Context, cmd TransitionCommand) (TransitionResult, error)
		ApplyPaymentEvent(ctx context.Context, cmd PaymentEventCommand) (domain.Order, error)
	}

	// OrderQueryService builds order listings and detail views for the admin
	// back office and for individual suppliers.
	OrderQueryService interface {
		ListAdmin(ctx context.Context, query AdminListQuery) (AdminOrderPage, error)
		GetAdminOrder(ctx context.Context, orderID int64) (AdminOrderDetail, error)
		ListSupplier(ctx context.Context, supplierID int64) ([]SupplierOrderView, error)
		GetSupplierOrder(ctx context.Context, supplierID, orderID int64) (SupplierOrderView, error)
	}
)

// TransitionCommand captures one status-change request.
type TransitionCommand struct {
	OrderID    int64
	Role       domain.ActorRole
	SupplierID int64
	NextStatus string
	// Note carries the operator's optional remark; for cancellations it doubles
	// as the cancellation reason.
	Note               string
	CancellationReason string
}

// TransitionResult reports the applied transition.
type TransitionResult struct {
	OrderID        int64
	OrderNumber    string
	PreviousStatus domain.OrderStatus
	Status         domain.OrderStatus
	UpdatedAt      time.Time
	Restocked      bool
	Order          domain.Order
}

// PaymentEventCommand captures one payment-gateway callback.
type PaymentEventCommand struct {
	OrderID       int64
	Event         string
	TransactionID string
}

// StatusChange is handed to the notifier after a transition commits.
type StatusChange struct {
	Order          domain.Order
	OrderNumber    string
	PreviousStatus domain.OrderStatus
	Status         domain.OrderStatus
	Restocked      bool
	ActorRole      domain.ActorRole
	OccurredAt     time.Time
}

// TransitionNotifier fans out buyer-facing side effects after a committed
// transition. Implementations must be safe to fail; errors are logged by the
// caller and never surfaced.
type TransitionNotifier interface {
	NotifyStatusChanged(ctx context.Context, change StatusChange) error
}

// AdminListQuery is the validated operator listing request.
type AdminListQuery struct {
	Page          int
	Limit         int
	Search        string
	Status        string
	PaymentStatus string
	SortBy        string
	From          string
	To            string
}

// AdminOrderPage bundles one page of orders with pagination metadata and the
// status-tab bucket counts.
type AdminOrderPage struct {
	Orders     []AdminOrderSummary
	Pagination Pagination
	Counts     StatusCounts
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int64
}

// StatusCounts summarizes per-status bucket counts into the fixed tabs.
type StatusCounts struct {
	All       int64
	Active    int64
	Completed int64
	Cancelled int64
}

// AdminOrderSummary is one row of the operator listing.
type AdminOrderSummary struct {
	ID            int64
	OrderNumber   string
	Status        domain.OrderStatus
	PaymentStatus string
	PaymentMethod string
	TotalAmount   int64
	ItemCount     int64
	Buyer         BuyerContact
	Suppliers     []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AdminOrderDetail extends the summary with line items and cancellation data.
type AdminOrderDetail struct {
	AdminOrderSummary
	DepositAmount      int64
	BalanceDue         int64
	CancellationReason *string
	CancelledAt        *time.Time
	DepositPaidAt      *time.Time
	FullPaidAt         *time.Time
	Items              []OrderItemView
	DeliveryAddress    *domain.Address
}

// BuyerContact is the buyer's displayable contact information.
type BuyerContact struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// OrderItemView is one line item prepared for display.
type OrderItemView struct {
	ID            int64
	ProductID     int64
	ProductName   string
	SupplierID    int64
	SupplierLabel string
	Quantity      int64
	UnitPrice     int64
	LineTotal     int64
}

// SupplierOrderView is one order as seen by a single fulfilling party: its own
// line items and subtotal plus the composition flags that tell the party
// whether it may manage the order.
type SupplierOrderView struct {
	ID                     int64
	OrderNumber            string
	Status                 domain.OrderStatus
	PaymentStatus          string
	Subtotal               int64
	ItemCount              int64
	CanManageStatus        bool
	ContainsOtherSuppliers bool
	Buyer                  BuyerContact
	DeliveryAddress        *domain.Address
	Items                  []OrderItemView
	CancellationReason     *string
	CancelledAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
