package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirogkart/storefront/internal/domain"
)

func TestStore_DefaultsOnFirstTouch(t *testing.T) {
	s := NewStore()
	sess := s.Get("u1")

	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, domain.StepAddress, sess.CurrentStep)
	assert.Nil(t, sess.Address)
	assert.Empty(t, sess.ShippingMethod)
	assert.Empty(t, sess.OrderID)
	assert.False(t, sess.Paid)
}

func TestStore_UpdateShippingMethod_ReplacesTrioOnly(t *testing.T) {
	s := NewStore()
	addr := &domain.Address{FullName: "Asha Verma", Pincode: "110001"}
	s.UpdateAddress("u1", addr)
	s.UpdateStep("u1", domain.StepShipping)

	s.UpdateShippingMethod("u1", "Express", 100, "Fship")

	sess := s.Get("u1")
	assert.Equal(t, "Express", sess.ShippingMethod)
	assert.Equal(t, float64(100), sess.ShippingCost)
	assert.Equal(t, "Fship", sess.ShippingProvider)
	// address and step untouched
	assert.Equal(t, addr, sess.Address)
	assert.Equal(t, domain.StepShipping, sess.CurrentStep)
}

func TestStore_UpdateAddress_ClearsErrorSlot(t *testing.T) {
	s := NewStore()
	s.SetErrorMessage("u1", "could not save address")
	require.Equal(t, "could not save address", s.Get("u1").ErrorMessage)

	s.UpdateAddress("u1", &domain.Address{FullName: "Asha Verma"})
	assert.Empty(t, s.Get("u1").ErrorMessage)
}

func TestStore_ErrorSlot_SingleSlot(t *testing.T) {
	s := NewStore()
	s.SetErrorMessage("u1", "first")
	s.SetErrorMessage("u1", "second")
	assert.Equal(t, "second", s.Get("u1").ErrorMessage)

	s.ClearError("u1")
	assert.Empty(t, s.Get("u1").ErrorMessage)
}

func TestStore_SetOrder_AtMostOnce(t *testing.T) {
	s := NewStore()
	first := &domain.Order{ID: "ord-1", TotalPrice: 290}
	s.SetOrder("u1", "ord-1", first)

	// a second set is ignored, re-creating an order is not supported
	s.SetOrder("u1", "ord-2", &domain.Order{ID: "ord-2"})

	sess := s.Get("u1")
	assert.Equal(t, "ord-1", sess.OrderID)
	assert.Equal(t, first, sess.OrderDetails)
}

func TestStore_UpdateStep_NoValidation(t *testing.T) {
	// the store never judges step legality, that is the guard's job
	s := NewStore()
	s.UpdateStep("u1", domain.StepSuccess)
	assert.Equal(t, domain.StepSuccess, s.Get("u1").CurrentStep)
}

func TestStore_Reset_Idempotent(t *testing.T) {
	s := NewStore()
	s.UpdateAddress("u1", &domain.Address{FullName: "Asha Verma"})
	s.UpdateShippingMethod("u1", "Express", 100, "Fship")
	s.SetOrder("u1", "ord-1", &domain.Order{ID: "ord-1"})
	s.SetShippingOptions("u1", domain.DefaultShippingOptions())
	s.SetErrorMessage("u1", "boom")
	s.UpdateStep("u1", domain.StepPayment)

	s.Reset("u1")
	once := s.Get("u1")
	s.Reset("u1")
	twice := s.Get("u1")

	for _, sess := range []domain.CheckoutSession{once, twice} {
		assert.Equal(t, domain.StepAddress, sess.CurrentStep)
		assert.Nil(t, sess.Address)
		assert.Empty(t, sess.ShippingMethod)
		assert.Empty(t, sess.ShippingProvider)
		assert.Zero(t, sess.ShippingCost)
		assert.Nil(t, sess.ShippingOptions)
		assert.Empty(t, sess.OrderID)
		assert.Nil(t, sess.OrderDetails)
		assert.Empty(t, sess.ErrorMessage)
		assert.False(t, sess.Paid)
	}

	// a fresh order can be placed after reset
	s.SetOrder("u1", "ord-2", &domain.Order{ID: "ord-2"})
	assert.Equal(t, "ord-2", s.Get("u1").OrderID)
}

func TestStore_SessionsAreIsolatedPerUser(t *testing.T) {
	s := NewStore()
	s.UpdateShippingMethod("u1", "Express", 100, "Fship")
	assert.Empty(t, s.Get("u2").ShippingMethod)
}
