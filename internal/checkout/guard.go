package checkout

import "github.com/nirogkart/storefront/internal/domain"

// Redirect targets handed back when a guard denies a step.
const (
	RedirectLogin   = "/login"
	RedirectCart    = "/cart"
	RedirectAddress = "/checkout/address"
)

// GuardInput is everything the guard needs to judge a step: the checkout
// session, the cart, and whether the caller is authenticated.
type GuardInput struct {
	Session       domain.CheckoutSession
	Cart          *domain.Cart
	Authenticated bool
}

// Allow decides whether the user may enter the target step. Precondition
// checks live here, once, instead of being re-derived by every step page.
// A denial carries the redirect target; no error message is raised for these,
// the caller just navigates.
func Allow(in GuardInput, target domain.CheckoutStep) (bool, string) {
	if !in.Authenticated {
		return false, RedirectLogin
	}

	switch target {
	case domain.StepAddress:
		if in.Cart.IsEmpty() {
			return false, RedirectCart
		}
	case domain.StepShipping:
		if in.Cart.IsEmpty() {
			return false, RedirectCart
		}
		if in.Session.Address == nil {
			return false, RedirectAddress
		}
	case domain.StepPayment:
		if in.Session.Address == nil || in.Session.ShippingMethod == "" {
			return false, RedirectAddress
		}
		if in.Cart.IsEmpty() {
			return false, RedirectCart
		}
	case domain.StepSuccess:
		if in.Session.OrderID == "" {
			return false, RedirectCart
		}
	default:
		return false, RedirectCart
	}

	return true, ""
}
