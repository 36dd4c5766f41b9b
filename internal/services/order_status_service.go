package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/platform/textutil"
	"github.com/borobepari/marketplace-api/internal/repositories"
)

const (
	maxTransitionNoteLength = 300

	defaultOperatorCancellationReason = "Cancelled by operator"
	defaultSupplierCancellationReason = "Cancelled by seller"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderUnauthorized indicates the actor may not manage the order. It is
	// deliberately generic so callers never leak order composition details.
	ErrOrderUnauthorized = errors.New("order: not authorized")
	// ErrIllegalTransition indicates the requested status change is not in the
	// acting role's allowed set.
	ErrIllegalTransition = errors.New("order: illegal status transition")
	// ErrOrderConflict indicates a concurrent request already changed the order.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderStatusServiceDeps bundles collaborators required to construct the
// status service.
type OrderStatusServiceDeps struct {
	Orders       repositories.OrderRepository
	Products     repositories.ProductRepository
	UnitOfWork   repositories.UnitOfWork
	Notifier     TransitionNotifier
	NumberPrefix string
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type orderStatusService struct {
	orders       repositories.OrderRepository
	products     repositories.ProductRepository
	unitOfWork   repositories.UnitOfWork
	notifier     TransitionNotifier
	numberPrefix string
	clock        func() time.Time
	logger       func(context.Context, string, map[string]any)
}

// NewOrderStatusService wires dependencies into a concrete OrderStatusService.
func NewOrderStatusService(deps OrderStatusServiceDeps) (OrderStatusService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order status service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order status service: product repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	prefix := deps.NumberPrefix
	if prefix == "" {
		prefix = domain.DefaultOrderNumberPrefix
	}

	return &orderStatusService{
		orders:       deps.Orders,
		products:     deps.Products,
		unitOfWork:   unit,
		notifier:     deps.Notifier,
		numberPrefix: prefix,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderStatusService) Transition(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	if cmd.OrderID <= 0 {
		return TransitionResult{}, fmt.Errorf("%w: order id must be positive", ErrOrderInvalidInput)
	}
	next, ok := domain.ParseOrderStatus(cmd.NextStatus)
	if !ok {
		return TransitionResult{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.NextStatus)
	}
	if len(cmd.Note) > maxTransitionNoteLength {
		return TransitionResult{}, fmt.Errorf("%w: note exceeds %d characters", ErrOrderInvalidInput, maxTransitionNoteLength)
	}
	switch cmd.Role {
	case domain.RoleOperator:
	case domain.RoleSupplier:
		if cmd.SupplierID <= 0 {
			return TransitionResult{}, fmt.Errorf("%w: supplier id must be positive", ErrOrderInvalidInput)
		}
		if next == domain.OrderStatusReturned {
			return TransitionResult{}, fmt.Errorf("%w: status %q is not requestable by suppliers", ErrOrderInvalidInput, next)
		}
	default:
		return TransitionResult{}, fmt.Errorf("%w: unknown actor role %q", ErrOrderInvalidInput, cmd.Role)
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return TransitionResult{}, s.mapRepositoryError(err)
	}

	if cmd.Role == domain.RoleSupplier {
		if err := s.authorizeSupplier(ctx, order.ID, cmd.SupplierID); err != nil {
			return TransitionResult{}, err
		}
	}

	current := domain.NormalizeOrderStatus(order.Status)
	if next == current {
		return TransitionResult{
			OrderID:        order.ID,
			OrderNumber:    order.Number(s.numberPrefix),
			PreviousStatus: current,
			Status:         current,
			UpdatedAt:      order.UpdatedAt,
			Order:          order,
		}, nil
	}
	if !CanTransition(cmd.Role, current, next) {
		return TransitionResult{}, fmt.Errorf("%w: %s may not move order from %q to %q", ErrIllegalTransition, cmd.Role, current, next)
	}

	now := s.clock()
	write := repositories.OrderStatusWrite{
		OrderID:        order.ID,
		ExpectedStatus: order.Status,
		NewStatus:      next,
		UpdatedAt:      now,
	}
	if next == domain.OrderStatusCancelled {
		reason := s.cancellationReason(cmd)
		write.CancellationReason = &reason
		write.CancelledAt = &now
	}

	shouldReconcile := next.IsVoid() && !current.IsVoid()

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.UpdateStatus(txCtx, write); err != nil {
			return s.mapRepositoryError(err)
		}
		if !shouldReconcile {
			return nil
		}
		items, err := s.orders.ListLineItems(txCtx, []int64{order.ID})
		if err != nil {
			return s.mapRepositoryError(err)
		}
		deltas := restockDeltas(items)
		if len(deltas) == 0 {
			return nil
		}
		if err := s.products.Restock(txCtx, deltas); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	updated := order
	updated.Status = string(next)
	updated.UpdatedAt = now
	if write.CancellationReason != nil {
		updated.CancellationReason = write.CancellationReason
		updated.CancelledAt = write.CancelledAt
	}

	s.notify(ctx, StatusChange{
		Order:          updated,
		OrderNumber:    updated.Number(s.numberPrefix),
		PreviousStatus: current,
		Status:         next,
		Restocked:      shouldReconcile,
		ActorRole:      cmd.Role,
		OccurredAt:     now,
	})

	return TransitionResult{
		OrderID:        updated.ID,
		OrderNumber:    updated.Number(s.numberPrefix),
		PreviousStatus: current,
		Status:         next,
		UpdatedAt:      now,
		Restocked:      shouldReconcile,
		Order:          updated,
	}, nil
}

func (s *orderStatusService) ApplyPaymentEvent(ctx context.Context, cmd PaymentEventCommand) (domain.Order, error) {
	if cmd.OrderID <= 0 {
		return domain.Order{}, fmt.Errorf("%w: order id must be positive", ErrOrderInvalidInput)
	}
	event, ok := domain.ParsePaymentEventType(cmd.Event)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: unknown payment event %q", ErrOrderInvalidInput, cmd.Event)
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	current := domain.NormalizeOrderStatus(order.Status)

	now := s.clock()
	write := repositories.PaymentEventWrite{
		OrderID:   order.ID,
		UpdatedAt: now,
	}
	switch event {
	case domain.PaymentEventDepositPaid:
		write.PaymentStatus = domain.PaymentStatusDepositPaid
		write.DepositPaidAt = &now
		write.ForceProcessing = paymentForcesProcessing(current)
	case domain.PaymentEventFullPaid:
		write.PaymentStatus = domain.PaymentStatusEscrowHold
		write.FullPaidAt = &now
		write.ForceProcessing = paymentForcesProcessing(current)
	case domain.PaymentEventEscrowHold:
		write.PaymentStatus = domain.PaymentStatusEscrowHold
	}

	var updated domain.Order
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		row, err := s.orders.ApplyPaymentEvent(txCtx, write)
		if err != nil {
			return s.mapRepositoryError(err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order.payment.applied", map[string]any{
		"order":          updated.ID,
		"event":          string(event),
		"payment_status": updated.PaymentStatus,
		"status":         updated.Status,
		"transaction":    cmd.TransactionID,
	})

	return updated, nil
}

// paymentForcesProcessing guards the fulfillment side effect of payment
// events: fulfillment only jumps to processing when the order has not already
// progressed past confirmation and is not voided.
func paymentForcesProcessing(current domain.OrderStatus) bool {
	switch current {
	case domain.OrderStatusPending, domain.OrderStatusPlaced, domain.OrderStatusConfirmed:
		return true
	default:
		return false
	}
}

// authorizeSupplier fails closed when the supplier holds no line items on the
// order or shares it with other suppliers.
func (s *orderStatusService) authorizeSupplier(ctx context.Context, orderID, supplierID int64) error {
	items, err := s.orders.ListLineItems(ctx, []int64{orderID})
	if err != nil {
		return s.mapRepositoryError(err)
	}
	composition := ResolveComposition(items, supplierID)
	if !composition.CanManageStatus {
		return ErrOrderUnauthorized
	}
	return nil
}

func (s *orderStatusService) cancellationReason(cmd TransitionCommand) string {
	raw := cmd.Note
	fallback := defaultOperatorCancellationReason
	if cmd.Role == domain.RoleSupplier {
		raw = cmd.CancellationReason
		fallback = defaultSupplierCancellationReason
	}
	reason := textutil.StripMarkup(raw)
	if reason == "" {
		return fallback
	}
	return textutil.Truncate(reason, maxTransitionNoteLength)
}

// restockDeltas groups line items by product and sums quantities so each
// product receives a single increment.
func restockDeltas(items []domain.OrderLineItem) map[int64]int64 {
	if len(items) == 0 {
		return nil
	}
	deltas := make(map[int64]int64, len(items))
	for _, item := range items {
		deltas[item.ProductID] += item.Quantity
	}
	return deltas
}

func (s *orderStatusService) notify(ctx context.Context, change StatusChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyStatusChanged(ctx, change); err != nil {
		s.logger(ctx, "order.notify.failed", map[string]any{
			"order":  change.Order.ID,
			"status": string(change.Status),
			"error":  err.Error(),
		})
	}
}

func (s *orderStatusService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderStatusService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
