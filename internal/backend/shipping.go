package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/nirogkart/storefront/internal/domain"
)

type ServiceabilityRequest struct {
	Pincode string  `json:"pincode"`
	Weight  float64 `json:"weight,omitempty"`
}

type serviceabilityResponse struct {
	Options []domain.ShippingOption `json:"options"`
}

// QuoteServiceability asks the backend which couriers can reach the pincode
// and at what rates. Runs through a circuit breaker; callers treat any error
// as "fall back to the default rate list", never as a reason to block
// checkout.
func (c *Client) QuoteServiceability(ctx context.Context, req ServiceabilityRequest) ([]domain.ShippingOption, error) {
	result, err := c.shippingBreaker.Execute(func() (interface{}, error) {
		var out serviceabilityResponse
		resp, httpErr := c.r(ctx).
			SetBody(req).
			SetResult(&out).
			Post("/shipping/serviceability")
		if httpErr != nil {
			return nil, fmt.Errorf("serviceability quote: %w", httpErr)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("serviceability quote: backend returned %d", resp.StatusCode())
		}
		if len(out.Options) == 0 {
			return nil, fmt.Errorf("serviceability quote: no options for pincode %s", req.Pincode)
		}
		return out.Options, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrBackendDown
		}
		return nil, err
	}
	return result.([]domain.ShippingOption), nil
}
