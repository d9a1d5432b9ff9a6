package domain

import "time"

type CheckoutStep int

const (
	StepAddress  CheckoutStep = 1
	StepShipping CheckoutStep = 2
	StepPayment  CheckoutStep = 3
	StepSuccess  CheckoutStep = 4
)

func (s CheckoutStep) String() string {
	switch s {
	case StepAddress:
		return "ADDRESS"
	case StepShipping:
		return "SHIPPING"
	case StepPayment:
		return "PAYMENT"
	case StepSuccess:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// CheckoutSession is the in-progress order placement record for one user.
// It lives in memory only; a reload starts from defaults (the cached
// shipping address is kept separately).
type CheckoutSession struct {
	UserID           string           `json:"user_id"`
	CurrentStep      CheckoutStep     `json:"current_step"`
	Address          *Address         `json:"address,omitempty"`
	ShippingMethod   string           `json:"shipping_method,omitempty"`
	ShippingProvider string           `json:"shipping_provider,omitempty"`
	ShippingCost     float64          `json:"shipping_cost"`
	ShippingOptions  []ShippingOption `json:"shipping_options,omitempty"`
	OrderID          string           `json:"order_id,omitempty"`
	OrderDetails     *Order           `json:"order_details,omitempty"`
	Paid             bool             `json:"paid"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
