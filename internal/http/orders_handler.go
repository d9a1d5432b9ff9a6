package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nirogkart/storefront/internal/backend"
	"github.com/nirogkart/storefront/internal/domain"
)

// OrderSource is the backend order lookup the handler consumes.
type OrderSource interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderSource
	timeout time.Duration
}

func NewOrdersHandler(orders OrderSource, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders/{id}: generic order-detail lookup ("View Order").
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, backend.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusBadGateway, "backend_error", "could not load order")
		return
	}

	if order.UserID != "" && order.UserID != userID {
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another account")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
