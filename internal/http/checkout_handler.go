package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nirogkart/storefront/internal/checkout"
	"github.com/nirogkart/storefront/internal/domain"
	"github.com/nirogkart/storefront/internal/metrics"
)

type CheckoutHandler struct {
	flow    *checkout.Service
	carts   checkout.CartAccess
	timeout time.Duration
}

func NewCheckoutHandler(flow *checkout.Service, carts checkout.CartAccess, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		flow:    flow,
		carts:   carts,
		timeout: timeout,
	}
}

// guard runs the central step precondition check. On denial it writes the
// redirect and returns false; handlers just bail out.
func (h *CheckoutHandler) guard(ctx context.Context, w http.ResponseWriter, userID string, target domain.CheckoutStep) bool {
	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not load cart")
		return false
	}

	in := checkout.GuardInput{
		Session:       h.flow.Session(userID),
		Cart:          cart,
		Authenticated: userID != "",
	}
	ok, redirect := checkout.Allow(in, target)
	if !ok {
		metrics.GuardDenials.WithLabelValues(redirect).Inc()
		respondRedirect(w, redirect)
		return false
	}
	return true
}

type SessionResponseDTO struct {
	Session        domain.CheckoutSession `json:"session"`
	PrefillAddress *domain.Address        `json:"prefill_address,omitempty"`
}

// GET /api/v1/checkout/session
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponseDTO{
		Session:        h.flow.Session(userID),
		PrefillAddress: h.flow.PrefillAddress(ctx, userID),
	})
}

// GET /api/v1/checkout/addresses lists the user's saved address book.
func (h *CheckoutHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	addresses, err := h.flow.SavedAddresses(ctx, userID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_error", "could not load addresses")
		return
	}

	respondJSON(w, http.StatusOK, addresses)
}

// POST /api/v1/checkout/address
func (h *CheckoutHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepAddress) {
		return
	}

	var addr domain.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.flow.SubmitAddress(ctx, userID, &addr); err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "address validation failed",
				"fields": vErr.Fields,
			})
			return
		}
		log.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("address submission failed")
		respondError(w, http.StatusBadGateway, "backend_error", "could not save address")
		return
	}

	respondJSON(w, http.StatusOK, h.flow.Session(userID))
}

type ShippingOptionsResponseDTO struct {
	Options    []domain.ShippingOption `json:"options"`
	Selected   string                  `json:"selected"`
	ItemsPrice float64                 `json:"items_price"`
	Total      float64                 `json:"total"` // includes the 18% tax line shown on this step
}

// GET /api/v1/checkout/shipping
func (h *CheckoutHandler) GetShippingOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepShipping) {
		return
	}

	options, err := h.flow.LoadShippingOptions(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "shipping_unavailable", "could not load shipping options")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not load cart")
		return
	}

	sess := h.flow.Session(userID)
	itemsPrice := cart.ItemsPrice()
	respondJSON(w, http.StatusOK, ShippingOptionsResponseDTO{
		Options:    options,
		Selected:   sess.ShippingMethod,
		ItemsPrice: itemsPrice,
		Total:      checkout.ShippingStepTotal(itemsPrice, sess.ShippingCost),
	})
}

type ChooseShippingRequestDTO struct {
	Method string `json:"method"`
}

// POST /api/v1/checkout/shipping
func (h *CheckoutHandler) ChooseShipping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepShipping) {
		return
	}

	var req ChooseShippingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Method == "" {
		respondError(w, http.StatusBadRequest, "missing_method", "shipping method is required")
		return
	}

	if err := h.flow.ChooseShipping(ctx, userID, req.Method); err != nil {
		respondError(w, http.StatusBadRequest, "unknown_method", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.flow.Session(userID))
}

type StartPaymentResponseDTO struct {
	PaymentURL string  `json:"payment_url"`
	OrderID    string  `json:"order_id"`
	Total      float64 `json:"total"` // items + shipping, no tax line on this step
}

// POST /api/v1/checkout/payment
func (h *CheckoutHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepPayment) {
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not load cart")
		return
	}

	paymentURL, err := h.flow.StartPayment(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("payment start failed")
		respondError(w, http.StatusBadGateway, "payment_error", "could not start payment")
		return
	}

	sess := h.flow.Session(userID)
	respondJSON(w, http.StatusOK, StartPaymentResponseDTO{
		PaymentURL: paymentURL,
		OrderID:    sess.OrderID,
		Total:      checkout.PaymentStepTotal(cart.ItemsPrice(), sess.ShippingCost),
	})
}

type RazorpayOrderResponseDTO struct {
	RazorpayOrderID string `json:"razorpay_order_id"`
}

// POST /api/v1/checkout/payment/razorpay returns the gateway-side order
// handle for the razorpay flow. Requires the backend order to exist already.
func (h *CheckoutHandler) RazorpayOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepPayment) {
		return
	}

	rzpID, err := h.flow.RazorpayOrder(ctx, userID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "payment_error", "could not create razorpay order")
		return
	}

	respondJSON(w, http.StatusOK, RazorpayOrderResponseDTO{RazorpayOrderID: rzpID})
}

type PaymentStatusResponseDTO struct {
	OrderID string `json:"order_id"`
	Paid    bool   `json:"paid"`
}

// GET /api/v1/checkout/status
func (h *CheckoutHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	sess := h.flow.Session(userID)
	respondJSON(w, http.StatusOK, PaymentStatusResponseDTO{
		OrderID: sess.OrderID,
		Paid:    sess.Paid,
	})
}

// POST /api/v1/checkout/payment/cancel is the page-unmount equivalent: stops
// the status poll without touching the session.
func (h *CheckoutHandler) CancelPolling(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	h.flow.StopPolling(userID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// GET /api/v1/checkout/success?order_id=...
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if !h.guard(ctx, w, userID, domain.StepSuccess) {
		return
	}

	order, err := h.flow.OrderDetails(ctx, userID, r.URL.Query().Get("order_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}

	// the query-string id is caller-supplied, same ownership rule as /orders/{id}
	if order.UserID != "" && order.UserID != userID {
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another account")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /api/v1/checkout/reset backs "Continue Shopping": session and cart both
// return to defaults.
func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.flow.ResetCheckout(ctx, userID); err != nil {
		respondError(w, http.StatusInternalServerError, "reset_failed", "could not reset checkout")
		return
	}

	respondJSON(w, http.StatusOK, h.flow.Session(userID))
}
