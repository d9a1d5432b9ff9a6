package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/nirogkart/storefront/internal/domain"
)

type createPaymentRequest struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

type createPaymentResponse struct {
	PaymentURL string `json:"payment_url"`
	SessionID  string `json:"session_id,omitempty"`
}

type razorpayOrderResponse struct {
	RazorpayOrderID string  `json:"razorpay_order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

// CreatePaymentSession asks the backend for a gateway checkout URL. The
// browser is redirected there wholesale; confirmation comes back only via
// polling the order, never via a callback.
func (c *Client) CreatePaymentSession(ctx context.Context, orderID string, amount float64) (string, error) {
	result, err := c.paymentBreaker.Execute(func() (interface{}, error) {
		var out createPaymentResponse
		resp, httpErr := c.r(ctx).
			SetBody(createPaymentRequest{OrderID: orderID, Amount: amount}).
			SetResult(&out).
			Post("/payment/create")
		if httpErr != nil {
			return nil, fmt.Errorf("create payment session: %w", httpErr)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("create payment session: backend returned %d", resp.StatusCode())
		}
		if out.PaymentURL == "" {
			return nil, ErrPaymentDeclined
		}
		return out.PaymentURL, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrBackendDown
		}
		return "", err
	}
	return result.(string), nil
}

// CreateRazorpayOrder registers the order with the razorpay integration and
// returns the gateway-side order handle.
func (c *Client) CreateRazorpayOrder(ctx context.Context, order *domain.Order) (string, error) {
	result, err := c.paymentBreaker.Execute(func() (interface{}, error) {
		var out razorpayOrderResponse
		resp, httpErr := c.r(ctx).
			SetBody(createPaymentRequest{OrderID: order.ID, Amount: order.TotalPrice}).
			SetResult(&out).
			Post("/razorpay/order")
		if httpErr != nil {
			return nil, fmt.Errorf("create razorpay order: %w", httpErr)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("create razorpay order: backend returned %d", resp.StatusCode())
		}
		return out.RazorpayOrderID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
