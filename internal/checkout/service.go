package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nirogkart/storefront/internal/backend"
	"github.com/nirogkart/storefront/internal/cache"
	"github.com/nirogkart/storefront/internal/domain"
	"github.com/nirogkart/storefront/internal/events"
	"github.com/nirogkart/storefront/internal/metrics"
)

// BackendAPI is the slice of the remote storefront API the checkout flow
// consumes. Everything behind it is server-owned; this side only submits and
// reads.
type BackendAPI interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, userID string, addr *domain.Address) (*domain.Address, error)
	QuoteServiceability(ctx context.Context, req backend.ServiceabilityRequest) ([]domain.ShippingOption, error)
	CreateOrder(ctx context.Context, req *backend.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CreatePaymentSession(ctx context.Context, orderID string, amount float64) (string, error)
	CreateRazorpayOrder(ctx context.Context, order *domain.Order) (string, error)
}

// CartAccess is what the flow needs from the cart side.
type CartAccess interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// ValidationError carries the per-field messages from address validation.
// Submission is blocked on any of these; nothing reaches the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("address validation failed on %d field(s)", len(e.Fields))
}

var ErrNoAddress = errors.New("no delivery address on the session")

// Service drives the checkout flow: address submission, shipping selection,
// lazy order creation, payment hand-off, and the status poll that follows.
type Service struct {
	store     *Store
	backend   BackendAPI
	carts     CartAccess
	addrCache cache.AddressCache
	publisher events.Publisher
	poller    *PaymentPoller
	quoteSfg  singleflight.Group // dedupes serviceability quotes per pincode

	pollMu      sync.Mutex
	pollCancels map[string]context.CancelFunc
	pollWG      sync.WaitGroup
}

func NewService(store *Store, api BackendAPI, carts CartAccess, addrCache cache.AddressCache, publisher events.Publisher) *Service {
	return &Service{
		store:       store,
		backend:     api,
		carts:       carts,
		addrCache:   addrCache,
		publisher:   publisher,
		poller:      NewPaymentPoller(api),
		pollCancels: make(map[string]context.CancelFunc),
	}
}

func (s *Service) Session(userID string) domain.CheckoutSession {
	return s.store.Get(userID)
}

// SubmitAddress validates the address locally, persists it via the backend,
// caches it for prefill, and advances to the shipping step. Validation
// failures never reach the backend.
func (s *Service) SubmitAddress(ctx context.Context, userID string, addr *domain.Address) error {
	if fieldErrs := addr.Validate(); fieldErrs != nil {
		return &ValidationError{Fields: fieldErrs}
	}

	saved := addr
	if addr.ID == "" {
		created, err := s.backend.CreateAddress(ctx, userID, addr)
		if err != nil {
			s.store.SetErrorMessage(userID, "could not save address, please try again")
			return err
		}
		saved = created
	}

	s.store.UpdateAddress(userID, saved)
	if err := s.addrCache.SetAddress(ctx, userID, saved); err != nil {
		// prefill cache only, never blocks the flow
		log.WithError(err).Warn("address cache set failed")
	}
	s.advance(userID, domain.StepShipping)
	return nil
}

// SavedAddresses lists the user's backend address book for the address step.
func (s *Service) SavedAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.backend.ListAddresses(ctx, userID)
}

// PrefillAddress returns the cached last-used address, if any.
func (s *Service) PrefillAddress(ctx context.Context, userID string) *domain.Address {
	addr, err := s.addrCache.GetAddress(ctx, userID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("address cache get failed")
		}
		return nil
	}
	return addr
}

// LoadShippingOptions quotes serviceability for the session's pincode. A
// failed quote degrades to the hardcoded default list instead of blocking
// checkout; there is no retry. The first option is auto-selected unless one
// was already chosen.
func (s *Service) LoadShippingOptions(ctx context.Context, userID string) ([]domain.ShippingOption, error) {
	sess := s.store.Get(userID)
	if sess.Address == nil {
		return nil, ErrNoAddress
	}
	pincode := sess.Address.Pincode

	v, err, _ := s.quoteSfg.Do(pincode, func() (interface{}, error) {
		return s.backend.QuoteServiceability(ctx, backend.ServiceabilityRequest{Pincode: pincode})
	})

	var options []domain.ShippingOption
	if err != nil {
		log.WithError(err).WithField("pincode", pincode).Warn("serviceability quote failed, using default rates")
		options = domain.DefaultShippingOptions()
	} else {
		options = v.([]domain.ShippingOption)
	}

	s.store.SetShippingOptions(userID, options)
	if sess.ShippingMethod == "" && len(options) > 0 {
		first := options[0]
		s.store.UpdateShippingMethod(userID, first.Type, first.Charge, first.Provider)
	}
	return options, nil
}

// ChooseShipping picks one of the session's quoted options and advances to
// the payment step.
func (s *Service) ChooseShipping(ctx context.Context, userID string, method string) error {
	sess := s.store.Get(userID)
	for _, opt := range sess.ShippingOptions {
		if opt.Type == method {
			s.store.UpdateShippingMethod(userID, opt.Type, opt.Charge, opt.Provider)
			s.advance(userID, domain.StepPayment)
			return nil
		}
	}
	return fmt.Errorf("unknown shipping method %q", method)
}

// StartPayment materializes the order lazily (only if the session has none),
// asks the backend for a gateway URL, and begins polling for confirmation.
// The returned URL is handed to the browser for a full redirect.
func (s *Service) StartPayment(ctx context.Context, userID string) (string, error) {
	sess := s.store.Get(userID)

	if sess.OrderID == "" {
		if sess.Address == nil {
			return "", ErrNoAddress
		}
		cart, err := s.carts.GetCart(ctx, userID)
		if err != nil {
			s.store.SetErrorMessage(userID, "could not load your cart")
			return "", err
		}
		if cart.IsEmpty() {
			return "", fmt.Errorf("cart is empty, nothing to pay for")
		}

		itemsPrice := cart.ItemsPrice()
		order, err := s.backend.CreateOrder(ctx, &backend.CreateOrderRequest{
			UserID:        userID,
			Items:         cart.ToOrderItems(),
			ItemsPrice:    itemsPrice,
			ShippingPrice: sess.ShippingCost,
			TotalPrice:    PaymentStepTotal(itemsPrice, sess.ShippingCost),
			Address:       *sess.Address,
		})
		if err != nil {
			s.store.SetErrorMessage(userID, "could not create your order, please try again")
			return "", err
		}
		s.store.SetOrder(userID, order.ID, order)
		sess = s.store.Get(userID)
	}

	amount := sess.OrderDetails.TotalPrice
	paymentURL, err := s.backend.CreatePaymentSession(ctx, sess.OrderID, amount)
	if err != nil {
		s.store.SetErrorMessage(userID, "could not start payment, please try again")
		return "", err
	}

	s.store.ClearError(userID)
	s.beginPolling(ctx, userID, sess.OrderID)
	return paymentURL, nil
}

// RazorpayOrder registers the session's order with the razorpay integration
// and returns the gateway-side order id the widget needs.
func (s *Service) RazorpayOrder(ctx context.Context, userID string) (string, error) {
	sess := s.store.Get(userID)
	if sess.OrderID == "" || sess.OrderDetails == nil {
		return "", backend.ErrOrderNotFound
	}
	return s.backend.CreateRazorpayOrder(ctx, sess.OrderDetails)
}

// OrderDetails fetches the order projection for the success page. An empty
// id falls back to the session's order.
func (s *Service) OrderDetails(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if orderID == "" {
		orderID = s.store.Get(userID).OrderID
	}
	if orderID == "" {
		return nil, backend.ErrOrderNotFound
	}
	return s.backend.GetOrder(ctx, orderID)
}

// ResetCheckout restores the session to defaults and empties the cart.
// Used by "Continue Shopping" after success. Idempotent.
func (s *Service) ResetCheckout(ctx context.Context, userID string) error {
	s.StopPolling(userID)
	s.store.Reset(userID)
	return s.carts.ClearCart(ctx, userID)
}

// beginPolling starts the payment watcher for the order. At most one watcher
// per user; a second payment attempt for the same order reuses the running
// one. The watcher outlives the originating request, so it gets a fresh
// context carrying only the caller's session token.
func (s *Service) beginPolling(reqCtx context.Context, userID, orderID string) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if _, running := s.pollCancels[userID]; running {
		return
	}

	ctx, cancel := context.WithCancel(backend.WithSession(context.Background(), backend.SessionFromContext(reqCtx)))
	s.pollCancels[userID] = cancel
	s.pollWG.Add(1)

	go func() {
		defer s.pollWG.Done()
		defer s.clearPoll(userID)

		s.poller.Run(ctx, orderID, func(order *domain.Order) {
			s.onPaid(userID, order)
		})
	}()
}

func (s *Service) onPaid(userID string, order *domain.Order) {
	s.store.MarkPaid(userID)
	s.advance(userID, domain.StepSuccess)
	metrics.PaymentOutcomes.WithLabelValues("paid").Inc()

	evt := events.OrderPaidEvent{
		OrderID:     order.ID,
		UserID:      userID,
		TotalAmount: order.TotalPrice,
		PaidAt:      time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishOrderPaid(ctx, evt); err != nil {
		log.WithError(err).Warn("order paid event publish failed, clearing cart directly")
		if clearErr := s.carts.ClearCart(ctx, userID); clearErr != nil {
			log.WithError(clearErr).Error("fallback cart clear failed")
		}
	}
}

// StopPolling cancels the user's payment watcher, the equivalent of leaving
// the payment page.
func (s *Service) StopPolling(userID string) {
	s.pollMu.Lock()
	cancel, ok := s.pollCancels[userID]
	s.pollMu.Unlock()
	if ok {
		cancel()
	}
}

// Close stops all watchers and waits for them to exit. Called at shutdown.
func (s *Service) Close() {
	s.pollMu.Lock()
	for _, cancel := range s.pollCancels {
		cancel()
	}
	s.pollMu.Unlock()
	s.pollWG.Wait()
}

func (s *Service) clearPoll(userID string) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	delete(s.pollCancels, userID)
}

func (s *Service) advance(userID string, step domain.CheckoutStep) {
	s.store.UpdateStep(userID, step)
	metrics.StepTransitions.WithLabelValues(step.String()).Inc()
}
