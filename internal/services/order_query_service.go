package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/repositories"
)

const (
	defaultListPage  = 1
	defaultListLimit = 20
	maxListLimit     = 100

	listDateLayout = "2006-01-02"

	// StatusFilterAll selects every status; it is the absence of a filter, not
	// a tenth status value.
	StatusFilterAll = "all"
)

// OrderQueryServiceDeps bundles collaborators for the query service.
type OrderQueryServiceDeps struct {
	Orders       repositories.OrderRepository
	Parties      repositories.PartyRepository
	NumberPrefix string
}

type orderQueryService struct {
	orders       repositories.OrderRepository
	parties      repositories.PartyRepository
	numberPrefix string
}

// NewOrderQueryService wires dependencies into a concrete OrderQueryService.
func NewOrderQueryService(deps OrderQueryServiceDeps) (OrderQueryService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order query service: order repository is required")
	}
	if deps.Parties == nil {
		return nil, errors.New("order query service: party repository is required")
	}
	prefix := deps.NumberPrefix
	if prefix == "" {
		prefix = domain.DefaultOrderNumberPrefix
	}
	return &orderQueryService{
		orders:       deps.Orders,
		parties:      deps.Parties,
		numberPrefix: prefix,
	}, nil
}

func (s *orderQueryService) ListAdmin(ctx context.Context, query AdminListQuery) (AdminOrderPage, error) {
	page, limit, listQuery, err := buildAdminListQuery(query)
	if err != nil {
		return AdminOrderPage{}, err
	}

	var (
		orders    []domain.Order
		total     int64
		rawCounts map[string]int64
	)
	// The two queries share one predicate; the count query drops only the
	// status filter so the tab badges honor the active search and date range.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, listTotal, err := s.orders.List(groupCtx, listQuery)
		if err != nil {
			return err
		}
		orders, total = rows, listTotal
		return nil
	})
	group.Go(func() error {
		counts, err := s.orders.CountByStatus(groupCtx, listQuery)
		if err != nil {
			return err
		}
		rawCounts = counts
		return nil
	})
	if err := group.Wait(); err != nil {
		return AdminOrderPage{}, mapQueryRepositoryError(err)
	}

	summaries, err := s.buildAdminSummaries(ctx, orders)
	if err != nil {
		return AdminOrderPage{}, err
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return AdminOrderPage{
		Orders: summaries,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
		Counts: summarizeCounts(rawCounts),
	}, nil
}

func (s *orderQueryService) GetAdminOrder(ctx context.Context, orderID int64) (AdminOrderDetail, error) {
	if orderID <= 0 {
		return AdminOrderDetail{}, fmt.Errorf("%w: order id must be positive", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return AdminOrderDetail{}, mapQueryRepositoryError(err)
	}
	items, err := s.orders.ListLineItems(ctx, []int64{order.ID})
	if err != nil {
		return AdminOrderDetail{}, mapQueryRepositoryError(err)
	}

	buyers, err := s.parties.GetBuyers(ctx, []int64{order.UserID})
	if err != nil {
		return AdminOrderDetail{}, mapQueryRepositoryError(err)
	}
	addresses, err := s.parties.DefaultAddresses(ctx, []int64{order.UserID})
	if err != nil {
		return AdminOrderDetail{}, mapQueryRepositoryError(err)
	}
	suppliers, err := s.suppliersFor(ctx, items)
	if err != nil {
		return AdminOrderDetail{}, err
	}

	detail := AdminOrderDetail{
		AdminOrderSummary:  s.adminSummary(order, items, buyers, suppliers),
		DepositAmount:      order.DepositAmount,
		BalanceDue:         order.BalanceDue,
		CancellationReason: order.CancellationReason,
		CancelledAt:        order.CancelledAt,
		DepositPaidAt:      order.DepositPaidAt,
		FullPaidAt:         order.FullPaidAt,
		Items:              itemViews(items, suppliers),
	}
	if address, ok := addresses[order.UserID]; ok {
		detail.DeliveryAddress = &address
	}
	return detail, nil
}

func (s *orderQueryService) ListSupplier(ctx context.Context, supplierID int64) ([]SupplierOrderView, error) {
	if supplierID <= 0 {
		return nil, fmt.Errorf("%w: supplier id must be positive", ErrOrderInvalidInput)
	}

	orders, err := s.orders.ListForSupplier(ctx, supplierID)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	if len(orders) == 0 {
		return []SupplierOrderView{}, nil
	}

	orderIDs := make([]int64, 0, len(orders))
	userIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
		userIDs = append(userIDs, order.UserID)
	}

	items, err := s.orders.ListLineItems(ctx, orderIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	itemsByOrder := groupItemsByOrder(items)

	buyers, err := s.parties.GetBuyers(ctx, userIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	addresses, err := s.parties.DefaultAddresses(ctx, userIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	suppliers, err := s.suppliersFor(ctx, items)
	if err != nil {
		return nil, err
	}

	views := make([]SupplierOrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, s.supplierView(order, itemsByOrder[order.ID], supplierID, buyers, addresses, suppliers))
	}
	return views, nil
}

func (s *orderQueryService) GetSupplierOrder(ctx context.Context, supplierID, orderID int64) (SupplierOrderView, error) {
	if supplierID <= 0 || orderID <= 0 {
		return SupplierOrderView{}, fmt.Errorf("%w: ids must be positive", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return SupplierOrderView{}, mapQueryRepositoryError(err)
	}
	items, err := s.orders.ListLineItems(ctx, []int64{order.ID})
	if err != nil {
		return SupplierOrderView{}, mapQueryRepositoryError(err)
	}

	composition := ResolveComposition(items, supplierID)
	if len(composition.OwnItems) == 0 {
		return SupplierOrderView{}, ErrOrderUnauthorized
	}

	buyers, err := s.parties.GetBuyers(ctx, []int64{order.UserID})
	if err != nil {
		return SupplierOrderView{}, mapQueryRepositoryError(err)
	}
	addresses, err := s.parties.DefaultAddresses(ctx, []int64{order.UserID})
	if err != nil {
		return SupplierOrderView{}, mapQueryRepositoryError(err)
	}
	suppliers, err := s.suppliersFor(ctx, items)
	if err != nil {
		return SupplierOrderView{}, err
	}

	return s.supplierView(order, items, supplierID, buyers, addresses, suppliers), nil
}

func buildAdminListQuery(query AdminListQuery) (page, limit int, listQuery repositories.OrderListQuery, err error) {
	page = query.Page
	if page == 0 {
		page = defaultListPage
	}
	if page < 1 {
		return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: page must be at least 1", ErrOrderInvalidInput)
	}
	limit = query.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit {
		return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrOrderInvalidInput, maxListLimit)
	}

	listQuery = repositories.OrderListQuery{
		Search:        strings.TrimSpace(query.Search),
		PaymentStatus: strings.TrimSpace(query.PaymentStatus),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}

	if status := strings.TrimSpace(query.Status); status != "" && !strings.EqualFold(status, StatusFilterAll) {
		parsed, ok := domain.ParseOrderStatus(status)
		if !ok {
			return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
		}
		listQuery.Status = &parsed
	}

	switch sortBy := strings.TrimSpace(query.SortBy); sortBy {
	case "", string(repositories.OrderSortNewest):
		listQuery.Sort = repositories.OrderSortNewest
	case string(repositories.OrderSortOldest):
		listQuery.Sort = repositories.OrderSortOldest
	case string(repositories.OrderSortAmountDesc):
		listQuery.Sort = repositories.OrderSortAmountDesc
	case string(repositories.OrderSortAmountAsc):
		listQuery.Sort = repositories.OrderSortAmountAsc
	default:
		return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: unknown sort %q", ErrOrderInvalidInput, sortBy)
	}

	if from := strings.TrimSpace(query.From); from != "" {
		parsed, parseErr := time.ParseInLocation(listDateLayout, from, time.UTC)
		if parseErr != nil {
			return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrOrderInvalidInput)
		}
		listQuery.From = &parsed
	}
	if to := strings.TrimSpace(query.To); to != "" {
		parsed, parseErr := time.ParseInLocation(listDateLayout, to, time.UTC)
		if parseErr != nil {
			return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrOrderInvalidInput)
		}
		// The range end is exclusive, so include the whole "to" day.
		end := parsed.AddDate(0, 0, 1)
		listQuery.To = &end
	}
	if listQuery.From != nil && listQuery.To != nil && !listQuery.From.Before(*listQuery.To) {
		return 0, 0, repositories.OrderListQuery{}, fmt.Errorf("%w: from must precede to", ErrOrderInvalidInput)
	}

	return page, limit, listQuery, nil
}

// summarizeCounts folds raw stored-status counts into the fixed tab buckets.
// Stored statuses are normalized first so legacy spellings land in the right
// bucket.
func summarizeCounts(rawCounts map[string]int64) StatusCounts {
	counts := StatusCounts{}
	for raw, n := range rawCounts {
		counts.All += n
		switch domain.GroupFor(domain.NormalizeOrderStatus(raw)) {
		case domain.StatusGroupActive:
			counts.Active += n
		case domain.StatusGroupCompleted:
			counts.Completed += n
		case domain.StatusGroupCancelled:
			counts.Cancelled += n
		}
	}
	return counts
}

func (s *orderQueryService) buildAdminSummaries(ctx context.Context, orders []domain.Order) ([]AdminOrderSummary, error) {
	if len(orders) == 0 {
		return []AdminOrderSummary{}, nil
	}

	orderIDs := make([]int64, 0, len(orders))
	userIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
		userIDs = append(userIDs, order.UserID)
	}

	items, err := s.orders.ListLineItems(ctx, orderIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	itemsByOrder := groupItemsByOrder(items)

	buyers, err := s.parties.GetBuyers(ctx, userIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	suppliers, err := s.suppliersFor(ctx, items)
	if err != nil {
		return nil, err
	}

	summaries := make([]AdminOrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, s.adminSummary(order, itemsByOrder[order.ID], buyers, suppliers))
	}
	return summaries, nil
}

func (s *orderQueryService) adminSummary(order domain.Order, items []domain.OrderLineItem, buyers map[int64]domain.Buyer, suppliers map[int64]domain.Supplier) AdminOrderSummary {
	summary := AdminOrderSummary{
		ID:            order.ID,
		OrderNumber:   order.Number(s.numberPrefix),
		Status:        domain.NormalizeOrderStatus(order.Status),
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		Buyer:         buyerContact(order.UserID, buyers),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		summary.ItemCount += item.Quantity
		if _, ok := seen[item.SupplierID]; ok {
			continue
		}
		seen[item.SupplierID] = struct{}{}
		summary.Suppliers = append(summary.Suppliers, supplierLabel(item.SupplierID, suppliers))
	}
	return summary
}

func (s *orderQueryService) supplierView(order domain.Order, items []domain.OrderLineItem, supplierID int64, buyers map[int64]domain.Buyer, addresses map[int64]domain.Address, suppliers map[int64]domain.Supplier) SupplierOrderView {
	composition := ResolveComposition(items, supplierID)
	view := SupplierOrderView{
		ID:                     order.ID,
		OrderNumber:            order.Number(s.numberPrefix),
		Status:                 domain.NormalizeOrderStatus(order.Status),
		PaymentStatus:          order.PaymentStatus,
		Subtotal:               composition.Subtotal,
		ItemCount:              composition.ItemCount,
		CanManageStatus:        composition.CanManageStatus,
		ContainsOtherSuppliers: composition.ContainsOtherSuppliers,
		Buyer:                  buyerContact(order.UserID, buyers),
		Items:                  itemViews(composition.OwnItems, suppliers),
		CancellationReason:     order.CancellationReason,
		CancelledAt:            order.CancelledAt,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
	if address, ok := addresses[order.UserID]; ok {
		view.DeliveryAddress = &address
	}
	return view
}

func (s *orderQueryService) suppliersFor(ctx context.Context, items []domain.OrderLineItem) (map[int64]domain.Supplier, error) {
	seen := make(map[int64]struct{}, len(items))
	supplierIDs := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SupplierID]; ok {
			continue
		}
		seen[item.SupplierID] = struct{}{}
		supplierIDs = append(supplierIDs, item.SupplierID)
	}
	if len(supplierIDs) == 0 {
		return map[int64]domain.Supplier{}, nil
	}
	suppliers, err := s.parties.GetSuppliers(ctx, supplierIDs)
	if err != nil {
		return nil, mapQueryRepositoryError(err)
	}
	return suppliers, nil
}

func groupItemsByOrder(items []domain.OrderLineItem) map[int64][]domain.OrderLineItem {
	grouped := make(map[int64][]domain.OrderLineItem, len(items))
	for _, item := range items {
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	return grouped
}

func itemViews(items []domain.OrderLineItem, suppliers map[int64]domain.Supplier) []OrderItemView {
	views := make([]OrderItemView, 0, len(items))
	for _, item := range items {
		views = append(views, OrderItemView{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			SupplierID:    item.SupplierID,
			SupplierLabel: supplierLabel(item.SupplierID, suppliers),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice(),
			LineTotal:     item.LineTotal,
		})
	}
	return views
}

func buyerContact(userID int64, buyers map[int64]domain.Buyer) BuyerContact {
	contact := BuyerContact{ID: userID}
	if buyer, ok := buyers[userID]; ok {
		contact.Name = buyer.Name
		contact.Email = buyer.Email
		contact.Phone = buyer.Phone
	}
	return contact
}

func supplierLabel(supplierID int64, suppliers map[int64]domain.Supplier) string {
	if supplier, ok := suppliers[supplierID]; ok {
		return supplier.Label()
	}
	return domain.Supplier{ID: supplierID}.Label()
}

func mapQueryRepositoryError(err error) error {
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
