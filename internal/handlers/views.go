package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain "github.com/borobepari/marketplace-api/internal/domain"
	"github.com/borobepari/marketplace-api/internal/platform/httpx"
	"github.com/borobepari/marketplace-api/internal/services"
)

type buyerPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type addressPayload struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
}

type itemPayload struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	SupplierID    int64  `json:"supplierId"`
	SupplierLabel string `json:"supplierLabel"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     int64  `json:"unitPrice"`
	LineTotal     int64  `json:"lineTotal"`
}

type transitionPayload struct {
	OrderID        int64     `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Restocked      bool      `json:"restocked"`
}

func buyerView(contact services.BuyerContact) buyerPayload {
	return buyerPayload{
		ID:    contact.ID,
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
	}
}

func addressView(address *domain.Address) *addressPayload {
	if address == nil {
		return nil
	}
	return &addressPayload{Line1: address.Line1, City: address.City}
}

func itemsView(items []services.OrderItemView) []itemPayload {
	out := make([]itemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, itemPayload{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			SupplierID:    item.SupplierID,
			SupplierLabel: item.SupplierLabel,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal,
		})
	}
	return out
}

func transitionView(result services.TransitionResult) transitionPayload {
	return transitionPayload{
		OrderID:        result.OrderID,
		OrderNumber:    result.OrderNumber,
		PreviousStatus: string(result.PreviousStatus),
		Status:         string(result.Status),
		UpdatedAt:      result.UpdatedAt,
		Restocked:      result.Restocked,
	}
}

// writeSupplierOrderError renders supplier-facing order errors. Orders
// outside the supplier's scope and orders that do not exist produce the
// same forbidden response so the status code cannot be used to probe for
// an order's existence.
func writeSupplierOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrOrderNotFound) {
		err = services.ErrOrderUnauthorized
	}
	writeOrderError(ctx, w, err)
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderUnauthorized):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "not authorized to manage this order", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrIllegalTransition):
		httpx.WriteError(ctx, w, httpx.NewError("illegal_transition", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently, retry the request", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
