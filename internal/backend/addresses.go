package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nirogkart/storefront/internal/domain"
)

// ListAddresses returns the user's saved delivery addresses.
func (c *Client) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	var out []domain.Address
	resp, err := c.r(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&out).
		Get("/addresses")
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list addresses: backend returned %d", resp.StatusCode())
	}
	return out, nil
}

// CreateAddress submits a new address. The caller is expected to have run
// client-side validation already; the backend re-validates and is
// authoritative.
func (c *Client) CreateAddress(ctx context.Context, userID string, addr *domain.Address) (*domain.Address, error) {
	var out domain.Address
	resp, err := c.r(ctx).
		SetQueryParam("user_id", userID).
		SetBody(addr).
		SetResult(&out).
		Post("/addresses")
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	if resp.StatusCode() == http.StatusBadRequest {
		var apiErr errorResponse
		if jsonErr := unmarshalBody(resp.Body(), &apiErr); jsonErr == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("create address rejected: %s", apiErr.Error)
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create address: backend returned %d", resp.StatusCode())
	}
	return &out, nil
}
