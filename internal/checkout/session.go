package checkout

import (
	"sync"
	"time"

	"github.com/nirogkart/storefront/internal/domain"
)

// Store is the single source of truth for in-progress checkouts, one session
// per user. Mutations are plain in-memory assignment and cannot fail; network
// failures belong to the callers and land in the session's single error slot.
//
// The store deliberately does not validate step transitions. Whether a move
// is legal is the guard's call, not the store's.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.CheckoutSession
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.CheckoutSession),
	}
}

func newSession(userID string) *domain.CheckoutSession {
	now := time.Now()
	return &domain.CheckoutSession{
		UserID:      userID,
		CurrentStep: domain.StepAddress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// session returns the live record, creating defaults on first touch.
// Callers must hold s.mu.
func (s *Store) session(userID string) *domain.CheckoutSession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession(userID)
		s.sessions[userID] = sess
	}
	return sess
}

// Get returns a snapshot of the user's session.
func (s *Store) Get(userID string) domain.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.session(userID)
}

func (s *Store) UpdateStep(userID string, step domain.CheckoutStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.CurrentStep = step
	sess.UpdatedAt = time.Now()
}

func (s *Store) UpdateAddress(userID string, addr *domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.Address = addr
	sess.ErrorMessage = ""
	sess.UpdatedAt = time.Now()
}

// UpdateShippingMethod replaces the shipping trio together. It does not touch
// the step index or the address.
func (s *Store) UpdateShippingMethod(userID string, method string, cost float64, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.ShippingMethod = method
	sess.ShippingCost = cost
	sess.ShippingProvider = provider
	sess.UpdatedAt = time.Now()
}

func (s *Store) SetShippingOptions(userID string, options []domain.ShippingOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.ShippingOptions = options
	sess.UpdatedAt = time.Now()
}

// SetOrder records the backend-confirmed order. The order id is set at most
// once per session; later calls are ignored, re-creating an order is not
// supported.
func (s *Store) SetOrder(userID string, orderID string, details *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.OrderID != "" {
		return
	}
	sess.OrderID = orderID
	sess.OrderDetails = details
	sess.UpdatedAt = time.Now()
}

func (s *Store) MarkPaid(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.Paid = true
	sess.UpdatedAt = time.Now()
}

func (s *Store) SetErrorMessage(userID string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.ErrorMessage = msg
	sess.UpdatedAt = time.Now()
}

func (s *Store) ClearError(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.ErrorMessage = ""
	sess.UpdatedAt = time.Now()
}

// Reset restores the session to defaults. Idempotent.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = newSession(userID)
}
