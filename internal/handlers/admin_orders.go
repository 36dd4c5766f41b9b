package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/platform/httpx"
	"github.com/borobepari/marketplace-api/internal/platform/pagination"
	"github.com/borobepari/marketplace-api/internal/services"
)

// AdminOrderHandlers exposes the operator order endpoints.
type AdminOrderHandlers struct {
	statuses services.OrderStatusService
	queries  services.OrderQueryService
}

// NewAdminOrderHandlers constructs a new AdminOrderHandlers instance.
func NewAdminOrderHandlers(statuses services.OrderStatusService, queries services.OrderQueryService) *AdminOrderHandlers {
	return &AdminOrderHandlers{statuses: statuses, queries: queries}
}

// Routes registers the /admin/orders endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Patch("/orders/{orderID}/status", h.transition)
	r.Post("/orders/{orderID}/payment-events", h.applyPaymentEvent)
}

type adminTransitionRequest struct {
	NextStatus string `json:"nextStatus"`
	Note       string `json:"note"`
}

type paymentEventRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

type adminOrderSummaryPayload struct {
	ID            int64        `json:"id"`
	OrderNumber   string       `json:"orderNumber"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"paymentStatus,omitempty"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	TotalAmount   int64        `json:"totalAmount"`
	ItemCount     int64        `json:"itemCount"`
	Buyer         buyerPayload `json:"buyer"`
	Suppliers     []string     `json:"suppliers"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type adminOrderDetailPayload struct {
	adminOrderSummaryPayload
	DepositAmount      int64           `json:"depositAmount"`
	BalanceDue         int64           `json:"balanceDue"`
	CancellationReason *string         `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	DepositPaidAt      *time.Time      `json:"depositPaidAt,omitempty"`
	FullPaidAt         *time.Time      `json:"fullPaidAt,omitempty"`
	Items              []itemPayload   `json:"items"`
	DeliveryAddress    *addressPayload `json:"deliveryAddress,omitempty"`
}

type adminListResponse struct {
	Orders     []adminOrderSummaryPayload `json:"orders"`
	Pagination paginationPayload          `json:"pagination"`
	Counts     countsPayload              `json:"counts"`
}

type paginationPayload struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type countsPayload struct {
	All       int64 `json:"all"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	page, err := h.queries.ListAdmin(ctx, services.AdminListQuery{
		Page:          params.Page,
		Limit:         params.Limit,
		Search:        strings.TrimSpace(query.Get("search")),
		Status:        strings.TrimSpace(query.Get("status")),
		PaymentStatus: strings.TrimSpace(query.Get("paymentStatus")),
		SortBy:        strings.TrimSpace(query.Get("sortBy")),
		From:          strings.TrimSpace(query.Get("from")),
		To:            strings.TrimSpace(query.Get("to")),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	orders := make([]adminOrderSummaryPayload, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, adminSummaryView(order))
	}

	httpx.WriteJSON(w, http.StatusOK, adminListResponse{
		Orders: orders,
		Pagination: paginationPayload{
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			Total:      page.Pagination.Total,
			TotalPages: page.Pagination.TotalPages,
		},
		Counts: countsPayload{
			All:       page.Counts.All,
			Active:    page.Counts.Active,
			Completed: page.Counts.Completed,
			Cancelled: page.Counts.Cancelled,
		},
	})
}

func (h *AdminOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	detail, err := h.queries.GetAdminOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminOrderDetailPayload{
		adminOrderSummaryPayload: adminSummaryView(detail.AdminOrderSummary),
		DepositAmount:            detail.DepositAmount,
		BalanceDue:               detail.BalanceDue,
		CancellationReason:       detail.CancellationReason,
		CancelledAt:              detail.CancelledAt,
		DepositPaidAt:            detail.DepositPaidAt,
		FullPaidAt:               detail.FullPaidAt,
		Items:                    itemsView(detail.Items),
		DeliveryAddress:          addressView(detail.DeliveryAddress),
	})
}

func (h *AdminOrderHandlers) transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req adminTransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	result, err := h.statuses.Transition(ctx, services.TransitionCommand{
		OrderID:    orderID,
		Role:       domain.RoleOperator,
		NextStatus: req.NextStatus,
		Note:       req.Note,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, transitionView(result))
}

func (h *AdminOrderHandlers) applyPaymentEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req paymentEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	order, err := h.statuses.ApplyPaymentEvent(ctx, services.PaymentEventCommand{
		OrderID:       orderID,
		Event:         req.Status,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"orderId":       order.ID,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
		"updatedAt":     order.UpdatedAt,
	})
}

func adminSummaryView(summary services.AdminOrderSummary) adminOrderSummaryPayload {
	suppliers := summary.Suppliers
	if suppliers == nil {
		suppliers = []string{}
	}
	return adminOrderSummaryPayload{
		ID:            summary.ID,
		OrderNumber:   summary.OrderNumber,
		Status:        string(summary.Status),
		PaymentStatus: summary.PaymentStatus,
		PaymentMethod: summary.PaymentMethod,
		TotalAmount:   summary.TotalAmount,
		ItemCount:     summary.ItemCount,
		Buyer:         buyerView(summary.Buyer),
		Suppliers:     suppliers,
		CreatedAt:     summary.CreatedAt,
		UpdatedAt:     summary.UpdatedAt,
	}
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderID"))
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || orderID <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "order id must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return orderID, true
}
