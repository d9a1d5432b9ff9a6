package domain

type ShippingOption struct {
	Type        string  `json:"type"`
	Days        string  `json:"days"`
	Charge      float64 `json:"charge"`
	Description string  `json:"description,omitempty"`
	Provider    string  `json:"provider,omitempty"`
}

// DefaultShippingOptions is the fallback rate list used when the
// serviceability quote fails. Checkout degrades to these instead of blocking.
func DefaultShippingOptions() []ShippingOption {
	return []ShippingOption{
		{Type: "Standard", Days: "3-5 days", Charge: 40, Description: "Standard delivery"},
		{Type: "Express", Days: "1-2 days", Charge: 100, Description: "Express delivery"},
	}
}
