package domain

import "time"

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
}

// Order is the backend's projection of a placed order. The storefront only
// ever reads it; totals shown in the UI are recomputed locally for display
// while the backend amount stays authoritative.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Items          []OrderItem `json:"items"`
	ItemsPrice     float64     `json:"items_price"`
	TaxPrice       float64     `json:"tax_price"`
	ShippingPrice  float64     `json:"shipping_price"`
	TotalPrice     float64     `json:"total_price"`
	Address        Address     `json:"address"`
	IsPaid         bool        `json:"is_paid"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
	PaymentID      string      `json:"payment_id,omitempty"`
	RazorpayID     string      `json:"razorpay_id,omitempty"`
	ShippingStatus string      `json:"shipping_status,omitempty"`
	Waybill        string      `json:"waybill,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
