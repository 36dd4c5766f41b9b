package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/platform/auth"
	"github.com/borobepari/marketplace-api/internal/platform/httpx"
	"github.com/borobepari/marketplace-api/internal/services"
)

// SupplierOrderHandlers exposes order endpoints scoped to one fulfilling party.
type SupplierOrderHandlers struct {
	statuses services.OrderStatusService
	queries  services.OrderQueryService
}

// NewSupplierOrderHandlers constructs a new SupplierOrderHandlers instance.
func NewSupplierOrderHandlers(statuses services.OrderStatusService, queries services.OrderQueryService) *SupplierOrderHandlers {
	return &SupplierOrderHandlers{statuses: statuses, queries: queries}
}

// Routes registers the /supplier/orders endpoints.
func (h *SupplierOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Patch("/orders/{orderID}/status", h.transition)
}

type supplierTransitionRequest struct {
	NextStatus         string `json:"nextStatus"`
	CancellationReason string `json:"cancellationReason"`
}

type supplierOrderPayload struct {
	ID                     int64           `json:"id"`
	OrderNumber            string          `json:"orderNumber"`
	Status                 string          `json:"status"`
	PaymentStatus          string          `json:"paymentStatus,omitempty"`
	Subtotal               int64           `json:"subtotal"`
	ItemCount              int64           `json:"itemCount"`
	CanManageStatus        bool            `json:"canManageStatus"`
	ContainsOtherSuppliers bool            `json:"containsOtherSuppliers"`
	Buyer                  buyerPayload    `json:"buyer"`
	DeliveryAddress        *addressPayload `json:"deliveryAddress,omitempty"`
	Items                  []itemPayload   `json:"items"`
	CancellationReason     *string         `json:"cancellationReason,omitempty"`
	CancelledAt            *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

type supplierTransitionResponse struct {
	Success bool                          `json:"success"`
	Order   supplierTransitionOrderResult `json:"order"`
}

type supplierTransitionOrderResult struct {
	ID                 int64      `json:"id"`
	Status             string     `json:"status"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

func (h *SupplierOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	supplierID, ok := supplierFromContext(w, r)
	if !ok {
		return
	}

	orders, err := h.queries.ListSupplier(ctx, supplierID)
	if err != nil {
		writeSupplierOrderError(ctx, w, err)
		return
	}

	payload := make([]supplierOrderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, supplierOrderView(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func (h *SupplierOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	supplierID, ok := supplierFromContext(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.queries.GetSupplierOrder(ctx, supplierID, orderID)
	if err != nil {
		writeSupplierOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, supplierOrderView(order))
}

func (h *SupplierOrderHandlers) transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	supplierID, ok := supplierFromContext(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req supplierTransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	result, err := h.statuses.Transition(ctx, services.TransitionCommand{
		OrderID:            orderID,
		Role:               domain.RoleSupplier,
		SupplierID:         supplierID,
		NextStatus:         req.NextStatus,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		writeSupplierOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, supplierTransitionResponse{
		Success: true,
		Order: supplierTransitionOrderResult{
			ID:                 result.OrderID,
			Status:             string(result.Status),
			UpdatedAt:          result.UpdatedAt,
			CancellationReason: result.Order.CancellationReason,
			CancelledAt:        result.Order.CancelledAt,
		},
	})
}

func supplierOrderView(order services.SupplierOrderView) supplierOrderPayload {
	return supplierOrderPayload{
		ID:                     order.ID,
		OrderNumber:            order.OrderNumber,
		Status:                 string(order.Status),
		PaymentStatus:          order.PaymentStatus,
		Subtotal:               order.Subtotal,
		ItemCount:              order.ItemCount,
		CanManageStatus:        order.CanManageStatus,
		ContainsOtherSuppliers: order.ContainsOtherSuppliers,
		Buyer:                  buyerView(order.Buyer),
		DeliveryAddress:        addressView(order.DeliveryAddress),
		Items:                  itemsView(order.Items),
		CancellationReason:     order.CancellationReason,
		CancelledAt:            order.CancelledAt,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
}

func supplierFromContext(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !strings.EqualFold(identity.Role, auth.RoleSupplier) || identity.SupplierID <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "supplier authentication required", http.StatusUnauthorized))
		return 0, false
	}
	return identity.SupplierID, true
}
