package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nirogkart/storefront/internal/domain"
)

var ErrProductNotFound = fmt.Errorf("product not found")

// ListProducts fetches the catalog page from the backend.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	resp, err := c.r(ctx).
		SetResult(&out).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list products: backend returned %d", resp.StatusCode())
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	resp, err := c.r(ctx).
		SetResult(&out).
		Get("/products/" + id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get product %s: backend returned %d", id, resp.StatusCode())
	}
	return &out, nil
}
