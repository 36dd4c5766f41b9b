package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/repositories"
)

const orderColumns = `o.id, o.user_id, o.status, o.payment_status, o.payment_method,
	o.total_amount, o.deposit_amount, o.balance_due,
	o.cancellation_reason, o.cancelled_at, o.deposit_paid_at, o.full_paid_at,
	o.created_at, o.updated_at`

// OrderRepository is the pgx implementation of repositories.OrderRepository.
type OrderRepository struct {
	db           *DB
	numberPrefix string
}

// NewOrderRepository constructs an order repository bound to the shared DB.
// numberPrefix is the display order-number prefix used by listing search.
func NewOrderRepository(db *DB, numberPrefix string) (*OrderRepository, error) {
	if db == nil {
		return nil, errors.New("order repository: db is required")
	}
	if strings.TrimSpace(numberPrefix) == "" {
		return nil, errors.New("order repository: number prefix is required")
	}
	return &OrderRepository{db: db, numberPrefix: strings.TrimSpace(numberPrefix)}, nil
}

// FindByID loads a single order row.
func (r *OrderRepository) FindByID(ctx context.Context, orderID int64) (domain.Order, error) {
	row := r.db.querier(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, wrapError("order find", err)
	}
	return order, nil
}

// UpdateStatus applies the compare-and-swap status write. The guard on the
// previously-read status makes the racing loser match zero rows instead of
// double-applying the transition.
func (r *OrderRepository) UpdateStatus(ctx context.Context, write repositories.OrderStatusWrite) error {
	tag, err := r.db.querier(ctx).Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    updated_at = $2,
		    cancellation_reason = COALESCE($3, cancellation_reason),
		    cancelled_at = COALESCE($4, cancelled_at)
		WHERE id = $5 AND status = $6`,
		string(write.NewStatus), write.UpdatedAt,
		write.CancellationReason, write.CancelledAt,
		write.OrderID, write.ExpectedStatus)
	if err != nil {
		return wrapError("order status update", err)
	}
	if tag.RowsAffected() == 0 {
		return conflictError("order status update",
			fmt.Errorf("order %d no longer in status %q", write.OrderID, write.ExpectedStatus))
	}
	return nil
}

// ApplyPaymentEvent records payment timestamps/status and optionally forces the
// fulfillment status to processing, returning the updated row.
func (r *OrderRepository) ApplyPaymentEvent(ctx context.Context, write repositories.PaymentEventWrite) (domain.Order, error) {
	row := r.db.querier(ctx).QueryRow(ctx, `
		UPDATE orders o
		SET payment_status = $1,
		    status = CASE WHEN $2::bool THEN $3 ELSE status END,
		    deposit_paid_at = COALESCE($4, deposit_paid_at),
		    full_paid_at = COALESCE($5, full_paid_at),
		    updated_at = $6
		WHERE o.id = $7
		RETURNING `+orderColumns,
		write.PaymentStatus, write.ForceProcessing, string(domain.OrderStatusProcessing),
		write.DepositPaidAt, write.FullPaidAt, write.UpdatedAt, write.OrderID)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, wrapError("order payment event", err)
	}
	return order, nil
}

// ListLineItems batch-fetches line items for a set of orders in one pass,
// resolving each item's owning supplier through its product.
func (r *OrderRepository) ListLineItems(ctx context.Context, orderIDs []int64) ([]domain.OrderLineItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT li.id, li.order_id, li.product_id, p.name, p.supplier_id, li.quantity, li.line_total
		FROM order_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.order_id = ANY($1)
		ORDER BY li.order_id, li.id`, orderIDs)
	if err != nil {
		return nil, wrapError("order line items", err)
	}
	defer rows.Close()

	var items []domain.OrderLineItem
	for rows.Next() {
		var item domain.OrderLineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.SupplierID, &item.Quantity, &item.LineTotal); err != nil {
			return nil, wrapError("order line items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("order line items", err)
	}
	return items, nil
}

// ListForSupplier returns every order containing at least one of the supplier's
// products, newest first.
func (r *OrderRepository) ListForSupplier(ctx context.Context, supplierID int64) ([]domain.Order, error) {
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT DISTINCT `+orderColumns+`
		FROM orders o
		JOIN order_items li ON li.order_id = o.id
		JOIN products p ON p.id = li.product_id
		WHERE p.supplier_id = $1
		ORDER BY o.created_at DESC, o.id DESC`, supplierID)
	if err != nil {
		return nil, wrapError("supplier orders", err)
	}
	defer rows.Close()
	return collectOrders(rows, "supplier orders")
}

func collectOrders(rows pgx.Rows, op string) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, wrapError(op, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.UserID, &order.Status, &order.PaymentStatus, &order.PaymentMethod,
		&order.TotalAmount, &order.DepositAmount, &order.BalanceDue,
		&order.CancellationReason, &order.CancelledAt, &order.DepositPaidAt, &order.FullPaidAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
