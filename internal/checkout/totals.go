package checkout

import "math"

// Display totals only. The backend order is the source of truth for the
// amount actually charged; these values are never submitted as a payment
// amount.
//
// The two steps have historically shown different totals: the shipping
// summary adds an 18% tax line, the payment summary omits it. Both formulas
// are reproduced exactly as displayed; unifying them is a product decision,
// not ours.

// ShippingStepTotal is items + shipping + round(items * 0.18).
func ShippingStepTotal(itemsPrice, shippingCost float64) float64 {
	return itemsPrice + shippingCost + math.Round(itemsPrice*0.18)
}

// PaymentStepTotal is items + shipping, with no tax line.
func PaymentStepTotal(itemsPrice, shippingCost float64) float64 {
	return itemsPrice + shippingCost
}
