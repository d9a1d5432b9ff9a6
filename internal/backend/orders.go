package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nirogkart/storefront/internal/domain"
)

type CreateOrderRequest struct {
	UserID        string             `json:"user_id"`
	Items         []domain.OrderItem `json:"items"`
	ItemsPrice    float64            `json:"items_price"`
	TaxPrice      float64            `json:"tax_price"`
	ShippingPrice float64            `json:"shipping_price"`
	TotalPrice    float64            `json:"total_price"`
	Address       domain.Address     `json:"address"`
}

// CreateOrder materializes the order server-side immediately before the
// payment redirect. The backend recomputes the authoritative amount; the
// prices in the request are the client's snapshot, sent for traceability.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	var out domain.Order
	resp, err := c.r(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/checkout/create-order")
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create order: backend returned %d", resp.StatusCode())
	}
	if out.ID == "" {
		return nil, fmt.Errorf("create order: backend returned no order id")
	}
	return &out, nil
}

// GetOrder fetches the order projection by id. Used both by the success page
// and by the payment poller checking is_paid.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var out domain.Order
	resp, err := c.r(ctx).
		SetResult(&out).
		Get("/checkout/order/" + orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrOrderNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get order %s: backend returned %d", orderID, resp.StatusCode())
	}
	return &out, nil
}
