package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/services"
)

type stubStatusService struct {
	transitionFn   func(ctx context.Context, cmd services.TransitionCommand) (services.TransitionResult, error)
	paymentEventFn func(ctx context.Context, cmd services.PaymentEventCommand) (domain.Order, error)
}

func (s *stubStatusService) Transition(ctx context.Context, cmd services.TransitionCommand) (services.TransitionResult, error) {
	if s.transitionFn == nil {
		return services.TransitionResult{}, nil
	}
	return s.transitionFn(ctx, cmd)
}

func (s *stubStatusService) ApplyPaymentEvent(ctx context.Context, cmd services.PaymentEventCommand) (domain.Order, error) {
	if s.paymentEventFn == nil {
		return domain.Order{}, nil
	}
	return s.paymentEventFn(ctx, cmd)
}

type stubQueryService struct {
	listAdminFn        func(ctx context.Context, query services.AdminListQuery) (services.AdminOrderPage, error)
	getAdminOrderFn    func(ctx context.Context, orderID int64) (services.AdminOrderDetail, error)
	listSupplierFn     func(ctx context.Context, supplierID int64) ([]services.SupplierOrderView, error)
	getSupplierOrderFn func(ctx context.Context, supplierID, orderID int64) (services.SupplierOrderView, error)
}

func (s *stubQueryService) ListAdmin(ctx context.Context, query services.AdminListQuery) (services.AdminOrderPage, error) {
	if s.listAdminFn == nil {
		return services.AdminOrderPage{}, nil
	}
	return s.listAdminFn(ctx, query)
}

func (s *stubQueryService) GetAdminOrder(ctx context.Context, orderID int64) (services.AdminOrderDetail, error) {
	if s.getAdminOrderFn == nil {
		return services.AdminOrderDetail{}, nil
	}
	return s.getAdminOrderFn(ctx, orderID)
}

func (s *stubQueryService) ListSupplier(ctx context.Context, supplierID int64) ([]services.SupplierOrderView, error) {
	if s.listSupplierFn == nil {
		return nil, nil
	}
	return s.listSupplierFn(ctx, supplierID)
}

func (s *stubQueryService) GetSupplierOrder(ctx context.Context, supplierID, orderID int64) (services.SupplierOrderView, error) {
	if s.getSupplierOrderFn == nil {
		return services.SupplierOrderView{}, nil
	}
	return s.getSupplierOrderFn(ctx, supplierID, orderID)
}

func adminRouter(statuses services.OrderStatusService, queries services.OrderQueryService) chi.Router {
	h := NewAdminOrderHandlers(statuses, queries)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestAdminListOrdersPassesFilters(t *testing.T) {
	var captured services.AdminListQuery
	queries := &stubQueryService{
		listAdminFn: func(_ context.Context, query services.AdminListQuery) (services.AdminOrderPage, error) {
			captured = query
			return services.AdminOrderPage{
				Orders: []services.AdminOrderSummary{{
					ID:          1048,
					OrderNumber: "BB-2025-1048",
					Status:      domain.OrderStatusProcessing,
					TotalAmount: 5500,
					ItemCount:   2,
					Buyer:       services.BuyerContact{ID: 7, Name: "Anika Rahman", Email: "anika@example.com"},
					Suppliers:   []string{"Dhaka Lights"},
					CreatedAt:   time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC),
					UpdatedAt:   time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
				}},
				Pagination: services.Pagination{Page: 2, Limit: 25, Total: 42, TotalPages: 2},
				Counts:     services.StatusCounts{All: 42, Active: 15, Completed: 20, Cancelled: 7},
			}, nil
		},
	}

	r := adminRouter(&stubStatusService{}, queries)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders?page=2&limit=25&search=anika&status=processing&sortBy=amount_desc&from=2025-01-01&to=2025-02-01", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if captured.Page != 2 || captured.Limit != 25 {
		t.Fatalf("captured paging = %+v", captured)
	}
	if captured.Search != "anika" || captured.Status != "processing" || captured.SortBy != "amount_desc" {
		t.Fatalf("captured filters = %+v", captured)
	}
	if captured.From != "2025-01-01" || captured.To != "2025-02-01" {
		t.Fatalf("captured dates = %+v", captured)
	}

	var body adminListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].OrderNumber != "BB-2025-1048" {
		t.Fatalf("orders = %+v", body.Orders)
	}
	if body.Counts.All != 42 || body.Counts.Active != 15 {
		t.Fatalf("counts = %+v", body.Counts)
	}
	if body.Pagination.TotalPages != 2 {
		t.Fatalf("pagination = %+v", body.Pagination)
	}
}

func TestAdminListOrdersRejectsBadPaging(t *testing.T) {
	r := adminRouter(&stubStatusService{}, &stubQueryService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders?page=0", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminGetOrderReturnsDetail(t *testing.T) {
	reason := "Cancelled by operator"
	queries := &stubQueryService{
		getAdminOrderFn: func(_ context.Context, orderID int64) (services.AdminOrderDetail, error) {
			if orderID != 12 {
				t.Fatalf("orderID = %d, want 12", orderID)
			}
			return services.AdminOrderDetail{
				AdminOrderSummary: services.AdminOrderSummary{
					ID:          12,
					OrderNumber: "BB-2025-0012",
					Status:      domain.OrderStatusCancelled,
				},
				CancellationReason: &reason,
				Items: []services.OrderItemView{{
					ID: 3, ProductID: 9, ProductName: "Jute Rug", SupplierID: 4,
					SupplierLabel: "Supplier #4", Quantity: 2, UnitPrice: 250, LineTotal: 500,
				}},
				DeliveryAddress: &domain.Address{Line1: "12 Gulshan Ave", City: "Dhaka"},
			}, nil
		},
	}

	r := adminRouter(&stubStatusService{}, queries)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/12", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body adminOrderDetailPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.CancellationReason == nil || *body.CancellationReason != reason {
		t.Fatalf("cancellationReason = %v", body.CancellationReason)
	}
	if len(body.Items) != 1 || body.Items[0].UnitPrice != 250 {
		t.Fatalf("items = %+v", body.Items)
	}
	if body.DeliveryAddress == nil || body.DeliveryAddress.City != "Dhaka" {
		t.Fatalf("deliveryAddress = %+v", body.DeliveryAddress)
	}
}

func TestAdminTransitionAppliesOperatorCommand(t *testing.T) {
	statuses := &stubStatusService{
		transitionFn: func(_ context.Context, cmd services.TransitionCommand) (services.TransitionResult, error) {
			if cmd.Role != domain.RoleOperator {
				t.Fatalf("role = %q, want operator", cmd.Role)
			}
			if cmd.OrderID != 1048 || cmd.NextStatus != "shipped" || cmd.Note != "left warehouse" {
				t.Fatalf("cmd = %+v", cmd)
			}
			return services.TransitionResult{
				OrderID:        1048,
				OrderNumber:    "BB-2025-1048",
				PreviousStatus: domain.OrderStatusProcessing,
				Status:         domain.OrderStatusShipped,
				UpdatedAt:      time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
			}, nil
		},
	}

	r := adminRouter(statuses, &stubQueryService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/1048/status", strings.NewReader(`{"nextStatus":"shipped","note":"left warehouse"}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body transitionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.PreviousStatus != "processing" || body.Status != "shipped" {
		t.Fatalf("body = %+v", body)
	}
}

func TestAdminTransitionErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", services.ErrOrderInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"not found", services.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{"unauthorized", services.ErrOrderUnauthorized, http.StatusForbidden, "forbidden"},
		{"illegal transition", services.ErrIllegalTransition, http.StatusUnprocessableEntity, "illegal_transition"},
		{"conflict", services.ErrOrderConflict, http.StatusConflict, "order_conflict"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statuses := &stubStatusService{
				transitionFn: func(context.Context, services.TransitionCommand) (services.TransitionResult, error) {
					return services.TransitionResult{}, tc.err
				},
			}
			r := adminRouter(statuses, &stubQueryService{})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/orders/1/status", strings.NewReader(`{"nextStatus":"shipped"}`))
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tc.wantCode) {
				t.Fatalf("body = %s, want code %s", rec.Body.String(), tc.wantCode)
			}
		})
	}
}

func TestAdminTransitionRejectsBadOrderID(t *testing.T) {
	r := adminRouter(&stubStatusService{
		transitionFn: func(context.Context, services.TransitionCommand) (services.TransitionResult, error) {
			t.Fatal("service must not be called for malformed ids")
			return services.TransitionResult{}, nil
		},
	}, &stubQueryService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/abc/status", strings.NewReader(`{"nextStatus":"shipped"}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminPaymentEventReturnsUpdatedOrder(t *testing.T) {
	statuses := &stubStatusService{
		paymentEventFn: func(_ context.Context, cmd services.PaymentEventCommand) (domain.Order, error) {
			if cmd.OrderID != 12 || cmd.Event != "deposit_paid" || cmd.TransactionID != "txn-9" {
				t.Fatalf("cmd = %+v", cmd)
			}
			return domain.Order{
				ID:            12,
				Status:        "processing",
				PaymentStatus: "deposit_paid",
				UpdatedAt:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
			}, nil
		},
	}

	r := adminRouter(statuses, &stubQueryService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/12/payment-events", strings.NewReader(`{"status":"deposit_paid","transactionId":"txn-9"}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"paymentStatus":"deposit_paid"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestAdminTransitionRejectsMalformedJSON(t *testing.T) {
	r := adminRouter(&stubStatusService{}, &stubQueryService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/orders/12/status", strings.NewReader(`{"nextStatus":`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
