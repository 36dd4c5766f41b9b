package repositories

import (
	"context"
	"time"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups repository operations in a transactional boundary. Mutations
// performed through the callback context commit or roll back together.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderSort enumerates supported listing sort keys.
type OrderSort string

const (
	// OrderSortNewest orders by creation time, newest first.
	OrderSortNewest OrderSort = "newest"
	// OrderSortOldest orders by creation time, oldest first.
	OrderSortOldest OrderSort = "oldest"
	// OrderSortAmountDesc orders by total amount, highest first.
	OrderSortAmountDesc OrderSort = "amount_desc"
	// OrderSortAmountAsc orders by total amount, lowest first.
	OrderSortAmountAsc OrderSort = "amount_asc"
)

// OrderListQuery carries the shared predicate for both the paginated list query
// and the status bucket-count query. Status is the only predicate the count
// query omits.
type OrderListQuery struct {
	Search        string
	Status        *domain.OrderStatus
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Sort          OrderSort
	Limit         int
	Offset        int
}

// OrderStatusWrite describes the conditional status update applied inside the
// order status transaction. ExpectedStatus is the raw stored status previously
// read; the write matches zero rows when another request won the race.
type OrderStatusWrite struct {
	OrderID            int64
	ExpectedStatus     string
	NewStatus          domain.OrderStatus
	CancellationReason *string
	CancelledAt        *time.Time
	UpdatedAt          time.Time
}

// PaymentEventWrite describes the payment-status interplay update.
type PaymentEventWrite struct {
	OrderID         int64
	PaymentStatus   string
	ForceProcessing bool
	DepositPaidAt   *time.Time
	FullPaidAt      *time.Time
	UpdatedAt       time.Time
}

// OrderRepository persists orders and their line items.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (domain.Order, error)
	// UpdateStatus applies the compare-and-swap status write. A conflict error
	// is returned when the guard matches zero rows.
	UpdateStatus(ctx context.Context, write OrderStatusWrite) error
	ApplyPaymentEvent(ctx context.Context, write PaymentEventWrite) (domain.Order, error)
	// List returns one page of orders plus the total matching the full predicate.
	List(ctx context.Context, query OrderListQuery) ([]domain.Order, int64, error)
	// CountByStatus evaluates the same predicate with the status filter omitted
	// and returns counts keyed by the raw stored status string.
	CountByStatus(ctx context.Context, query OrderListQuery) (map[string]int64, error)
	// ListLineItems batch-fetches line items (with owning supplier) for a set of
	// orders in one pass.
	ListLineItems(ctx context.Context, orderIDs []int64) ([]domain.OrderLineItem, error)
	// ListForSupplier returns every order containing at least one line item that
	// resolves to the supplier's products, newest first.
	ListForSupplier(ctx context.Context, supplierID int64) ([]domain.Order, error)
}

// ProductRepository mutates product stock counts.
type ProductRepository interface {
	// Restock increments each product's stock by the given delta. Increments are
	// relative so concurrent reconciliations of unrelated orders do not clobber
	// each other.
	Restock(ctx context.Context, deltas map[int64]int64) error
}

// PartyRepository resolves buyers, their default addresses, and suppliers for
// listing summaries.
type PartyRepository interface {
	GetBuyers(ctx context.Context, userIDs []int64) (map[int64]domain.Buyer, error)
	DefaultAddresses(ctx context.Context, userIDs []int64) (map[int64]domain.Address, error)
	GetSuppliers(ctx context.Context, supplierIDs []int64) (map[int64]domain.Supplier, error)
}

// NotificationRepository inserts in-app notifications addressed to buyers.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
}
