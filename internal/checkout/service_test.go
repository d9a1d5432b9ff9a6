package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirogkart/storefront/internal/backend"
	"github.com/nirogkart/storefront/internal/cache"
	"github.com/nirogkart/storefront/internal/domain"
	"github.com/nirogkart/storefront/internal/events"
)

type mockBackend struct {
	m sync.Mutex

	addresses     []domain.Address
	createAddrErr error

	quoteOptions []domain.ShippingOption
	quoteErr     error
	quoteCalls   int

	createdOrder    *domain.Order
	createOrderErr  error
	createOrderReqs []*backend.CreateOrderRequest

	getOrder    *domain.Order
	getOrderErr error
	getCalls    int

	paymentURL string
	paymentErr error

	razorpayID  string
	razorpayErr error
}

func (b *mockBackend) ListAddresses(context.Context, string) ([]domain.Address, error) {
	b.m.Lock()
	defer b.m.Unlock()
	return b.addresses, nil
}

func (b *mockBackend) CreateAddress(_ context.Context, _ string, addr *domain.Address) (*domain.Address, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.createAddrErr != nil {
		return nil, b.createAddrErr
	}
	created := *addr
	created.ID = "addr-1"
	b.addresses = append(b.addresses, created)
	return &created, nil
}

func (b *mockBackend) QuoteServiceability(context.Context, backend.ServiceabilityRequest) ([]domain.ShippingOption, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.quoteCalls++
	if b.quoteErr != nil {
		return nil, b.quoteErr
	}
	return b.quoteOptions, nil
}

func (b *mockBackend) CreateOrder(_ context.Context, req *backend.CreateOrderRequest) (*domain.Order, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.createOrderReqs = append(b.createOrderReqs, req)
	if b.createOrderErr != nil {
		return nil, b.createOrderErr
	}
	return b.createdOrder, nil
}

func (b *mockBackend) GetOrder(context.Context, string) (*domain.Order, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.getCalls++
	if b.getOrderErr != nil {
		return nil, b.getOrderErr
	}
	return b.getOrder, nil
}

func (b *mockBackend) CreatePaymentSession(context.Context, string, float64) (string, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.paymentErr != nil {
		return "", b.paymentErr
	}
	return b.paymentURL, nil
}

func (b *mockBackend) CreateRazorpayOrder(context.Context, *domain.Order) (string, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.razorpayErr != nil {
		return "", b.razorpayErr
	}
	return b.razorpayID, nil
}

func (b *mockBackend) createOrderCount() int {
	b.m.Lock()
	defer b.m.Unlock()
	return len(b.createOrderReqs)
}

type mockCarts struct {
	m          sync.Mutex
	cart       *domain.Cart
	getErr     error
	clearCalls int
}

func (c *mockCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.cart == nil {
		return &domain.Cart{UserID: userID}, nil
	}
	return c.cart, nil
}

func (c *mockCarts) ClearCart(context.Context, string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.clearCalls++
	c.cart = nil
	return nil
}

func (c *mockCarts) clearCount() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.clearCalls
}

type mockAddrCache struct {
	m    sync.Mutex
	addr *domain.Address
	err  error
}

func (a *mockAddrCache) GetAddress(context.Context, string) (*domain.Address, error) {
	a.m.Lock()
	defer a.m.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	if a.addr == nil {
		return nil, cache.ErrCacheMiss
	}
	return a.addr, nil
}

func (a *mockAddrCache) SetAddress(_ context.Context, _ string, addr *domain.Address) error {
	a.m.Lock()
	defer a.m.Unlock()
	a.addr = addr
	return a.err
}

func (a *mockAddrCache) DeleteAddress(context.Context, string) error {
	a.m.Lock()
	defer a.m.Unlock()
	a.addr = nil
	return a.err
}

func (a *mockAddrCache) cached() *domain.Address {
	a.m.Lock()
	defer a.m.Unlock()
	return a.addr
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.OrderPaidEvent
	err    error
}

func (p *mockPublisher) PublishOrderPaid(_ context.Context, evt events.OrderPaidEvent) error {
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) published() []events.OrderPaidEvent {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]events.OrderPaidEvent(nil), p.events...)
}

func twoItemCart() *domain.Cart {
	return &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{
			{ProductID: "p1", Name: "Ashwagandha capsules", Price: 100, Quantity: 2},
			{ProductID: "p2", Name: "Chyawanprash", Price: 50, Quantity: 1},
		},
	}
}

func newTestService(api *mockBackend, carts *mockCarts, addrCache *mockAddrCache, pub *mockPublisher) *Service {
	svc := NewService(NewStore(), api, carts, addrCache, pub)
	// fast poll so tests never wait on the production cadence
	svc.poller.interval = 5 * time.Millisecond
	svc.poller.timeout = time.Second
	return svc
}

func TestSubmitAddress_ValidationBlocksSubmission(t *testing.T) {
	api := &mockBackend{}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})

	err := svc.SubmitAddress(context.Background(), "u1", &domain.Address{
		FullName:     "Asha Verma",
		MobileNumber: "12345", // wrong digit count
		Pincode:      "110001",
		State:        "Delhi",
		City:         "New Delhi",
		HouseNumber:  "42-B",
		AddressType:  domain.AddressTypeHome,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "mobile_number")
	// nothing reached the backend, session untouched
	assert.Empty(t, api.addresses)
	sess := svc.Session("u1")
	assert.Nil(t, sess.Address)
	assert.Equal(t, domain.StepAddress, sess.CurrentStep)
}

func TestSubmitAddress_CreatesAndAdvances(t *testing.T) {
	api := &mockBackend{}
	addrCache := &mockAddrCache{}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, addrCache, &mockPublisher{})

	addr := &domain.Address{
		FullName:     "Asha Verma",
		MobileNumber: "9876543210",
		Pincode:      "110001",
		State:        "Delhi",
		City:         "New Delhi",
		HouseNumber:  "42-B",
		AddressType:  domain.AddressTypeHome,
	}
	require.NoError(t, svc.SubmitAddress(context.Background(), "u1", addr))

	sess := svc.Session("u1")
	require.NotNil(t, sess.Address)
	assert.Equal(t, "addr-1", sess.Address.ID)
	assert.Equal(t, domain.StepShipping, sess.CurrentStep)
	assert.NotNil(t, addrCache.cached(), "selected address is cached for prefill")
}

func TestSubmitAddress_ExistingAddressSkipsCreate(t *testing.T) {
	api := &mockBackend{}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})

	addr := &domain.Address{
		ID:           "addr-7",
		FullName:     "Asha Verma",
		MobileNumber: "9876543210",
		Pincode:      "110001",
		State:        "Delhi",
		City:         "New Delhi",
		HouseNumber:  "42-B",
		AddressType:  domain.AddressTypeOffice,
	}
	require.NoError(t, svc.SubmitAddress(context.Background(), "u1", addr))

	assert.Empty(t, api.addresses, "existing address must not be re-created")
	assert.Equal(t, "addr-7", svc.Session("u1").Address.ID)
}

func TestSubmitAddress_BackendFailureSetsErrorSlot(t *testing.T) {
	api := &mockBackend{createAddrErr: errors.New("backend down")}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})

	err := svc.SubmitAddress(context.Background(), "u1", &domain.Address{
		FullName:     "Asha Verma",
		MobileNumber: "9876543210",
		Pincode:      "110001",
		State:        "Delhi",
		City:         "New Delhi",
		HouseNumber:  "42-B",
		AddressType:  domain.AddressTypeHome,
	})
	require.Error(t, err)

	sess := svc.Session("u1")
	assert.NotEmpty(t, sess.ErrorMessage)
	assert.Equal(t, domain.StepAddress, sess.CurrentStep)
}

func withAddress(svc *Service, userID string) {
	svc.store.UpdateAddress(userID, &domain.Address{
		ID:           "addr-1",
		FullName:     "Asha Verma",
		MobileNumber: "9876543210",
		Pincode:      "110001",
		State:        "Delhi",
		City:         "New Delhi",
		HouseNumber:  "42-B",
		AddressType:  domain.AddressTypeHome,
	})
}

func TestLoadShippingOptions_BackendFailure_FallsBackToDefaults(t *testing.T) {
	api := &mockBackend{quoteErr: errors.New("serviceability down")}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})
	withAddress(svc, "u1")

	options, err := svc.LoadShippingOptions(context.Background(), "u1")
	require.NoError(t, err, "a failed quote degrades, it does not error")

	require.Len(t, options, 2)
	assert.Equal(t, "Standard", options[0].Type)
	assert.Equal(t, float64(40), options[0].Charge)
	assert.Equal(t, "3-5 days", options[0].Days)
	assert.Equal(t, "Express", options[1].Type)
	assert.Equal(t, float64(100), options[1].Charge)
	assert.Equal(t, "1-2 days", options[1].Days)

	// first option auto-selected when nothing was chosen
	sess := svc.Session("u1")
	assert.Equal(t, "Standard", sess.ShippingMethod)
	assert.Equal(t, float64(40), sess.ShippingCost)
}

func TestLoadShippingOptions_KeepsExistingSelection(t *testing.T) {
	api := &mockBackend{quoteOptions: domain.DefaultShippingOptions()}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})
	withAddress(svc, "u1")
	svc.store.UpdateShippingMethod("u1", "Express", 100, "Fship")

	_, err := svc.LoadShippingOptions(context.Background(), "u1")
	require.NoError(t, err)

	sess := svc.Session("u1")
	assert.Equal(t, "Express", sess.ShippingMethod, "prior choice survives a reload")
}

func TestLoadShippingOptions_NoAddress(t *testing.T) {
	svc := newTestService(&mockBackend{}, &mockCarts{}, &mockAddrCache{}, &mockPublisher{})
	_, err := svc.LoadShippingOptions(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestChooseShipping_AdvancesToPayment(t *testing.T) {
	api := &mockBackend{quoteOptions: []domain.ShippingOption{
		{Type: "Standard", Days: "3-5 days", Charge: 40, Provider: "Delhivery"},
		{Type: "Express", Days: "1-2 days", Charge: 100, Provider: "Fship"},
	}}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})
	withAddress(svc, "u1")

	_, err := svc.LoadShippingOptions(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, svc.ChooseShipping(context.Background(), "u1", "Express"))

	sess := svc.Session("u1")
	assert.Equal(t, "Express", sess.ShippingMethod)
	assert.Equal(t, float64(100), sess.ShippingCost)
	assert.Equal(t, "Fship", sess.ShippingProvider)
	assert.Equal(t, domain.StepPayment, sess.CurrentStep)
}

func TestChooseShipping_UnknownMethod(t *testing.T) {
	svc := newTestService(&mockBackend{}, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})
	withAddress(svc, "u1")
	svc.store.SetShippingOptions("u1", domain.DefaultShippingOptions())

	err := svc.ChooseShipping(context.Background(), "u1", "Drone")
	assert.Error(t, err)
	assert.Equal(t, domain.StepAddress, svc.Session("u1").CurrentStep)
}

func paymentReadyService(t *testing.T, api *mockBackend, carts *mockCarts, pub *mockPublisher) *Service {
	t.Helper()
	svc := newTestService(api, carts, &mockAddrCache{}, pub)
	withAddress(svc, "u1")
	svc.store.SetShippingOptions("u1", domain.DefaultShippingOptions())
	require.NoError(t, svc.ChooseShipping(context.Background(), "u1", "Standard"))
	return svc
}

func TestStartPayment_CreatesOrderLazily(t *testing.T) {
	api := &mockBackend{
		createdOrder: &domain.Order{ID: "ord-1", UserID: "u1", TotalPrice: 290},
		getOrder:     &domain.Order{ID: "ord-1", IsPaid: false},
		paymentURL:   "https://pay.example.com/session/xyz",
	}
	carts := &mockCarts{cart: twoItemCart()}
	svc := paymentReadyService(t, api, carts, &mockPublisher{})
	defer svc.Close()

	url, err := svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session/xyz", url)

	require.Equal(t, 1, api.createOrderCount())
	req := api.createOrderReqs[0]
	assert.Equal(t, float64(250), req.ItemsPrice)
	assert.Equal(t, float64(40), req.ShippingPrice)
	assert.Equal(t, float64(290), req.TotalPrice, "payment amount has no tax line")
	assert.Len(t, req.Items, 2)

	assert.Equal(t, "ord-1", svc.Session("u1").OrderID)
}

func TestStartPayment_SecondAttemptReusesOrder(t *testing.T) {
	api := &mockBackend{
		createdOrder: &domain.Order{ID: "ord-1", UserID: "u1", TotalPrice: 290},
		getOrder:     &domain.Order{ID: "ord-1", IsPaid: false},
		paymentURL:   "https://pay.example.com/session/xyz",
	}
	svc := paymentReadyService(t, api, &mockCarts{cart: twoItemCart()}, &mockPublisher{})
	defer svc.Close()

	_, err := svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, api.createOrderCount(), "order is created at most once per session")
}

func TestStartPayment_CreateOrderFailure(t *testing.T) {
	api := &mockBackend{createOrderErr: errors.New("backend down")}
	svc := paymentReadyService(t, api, &mockCarts{cart: twoItemCart()}, &mockPublisher{})

	_, err := svc.StartPayment(context.Background(), "u1")
	require.Error(t, err)

	sess := svc.Session("u1")
	assert.Empty(t, sess.OrderID)
	assert.NotEmpty(t, sess.ErrorMessage)
}

func TestStartPayment_EmptyCart(t *testing.T) {
	api := &mockBackend{}
	svc := paymentReadyService(t, api, &mockCarts{}, &mockPublisher{})

	_, err := svc.StartPayment(context.Background(), "u1")
	assert.Error(t, err)
	assert.Zero(t, api.createOrderCount())
}

func TestStartPayment_NoAddress(t *testing.T) {
	api := &mockBackend{}
	svc := newTestService(api, &mockCarts{cart: twoItemCart()}, &mockAddrCache{}, &mockPublisher{})
	svc.store.SetShippingOptions("u1", domain.DefaultShippingOptions())
	svc.store.UpdateShippingMethod("u1", "Standard", 40, "Delhivery")

	_, err := svc.StartPayment(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Zero(t, api.createOrderCount())
}

func TestStartPayment_PollMarksPaidAndPublishes(t *testing.T) {
	api := &mockBackend{
		createdOrder: &domain.Order{ID: "ord-1", UserID: "u1", TotalPrice: 290},
		getOrder:     &domain.Order{ID: "ord-1", IsPaid: true, TotalPrice: 290},
		paymentURL:   "https://pay.example.com/session/xyz",
	}
	pub := &mockPublisher{}
	carts := &mockCarts{cart: twoItemCart()}
	svc := paymentReadyService(t, api, carts, pub)
	defer svc.Close()

	_, err := svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return svc.Session("u1").Paid
	}, time.Second, 5*time.Millisecond, "poller should observe the paid order")

	sess := svc.Session("u1")
	assert.Equal(t, domain.StepSuccess, sess.CurrentStep)

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	evt := pub.published()[0]
	assert.Equal(t, "ord-1", evt.OrderID)
	assert.Equal(t, "u1", evt.UserID)
	assert.Equal(t, float64(290), evt.TotalAmount)
}

func TestStartPayment_PublishFailureClearsCartDirectly(t *testing.T) {
	api := &mockBackend{
		createdOrder: &domain.Order{ID: "ord-1", UserID: "u1", TotalPrice: 290},
		getOrder:     &domain.Order{ID: "ord-1", IsPaid: true, TotalPrice: 290},
		paymentURL:   "https://pay.example.com/session/xyz",
	}
	pub := &mockPublisher{err: fmt.Errorf("kafka down")}
	carts := &mockCarts{cart: twoItemCart()}
	svc := paymentReadyService(t, api, carts, pub)
	defer svc.Close()

	_, err := svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return carts.clearCount() == 1
	}, time.Second, 5*time.Millisecond, "cart clear falls back to a direct call when publish fails")
}

func TestResetCheckout_ClearsSessionAndCart(t *testing.T) {
	api := &mockBackend{
		createdOrder: &domain.Order{ID: "ord-1", UserID: "u1", TotalPrice: 290},
		getOrder:     &domain.Order{ID: "ord-1", IsPaid: false},
		paymentURL:   "https://pay.example.com/session/xyz",
	}
	carts := &mockCarts{cart: twoItemCart()}
	svc := paymentReadyService(t, api, carts, &mockPublisher{})

	_, err := svc.StartPayment(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, svc.ResetCheckout(context.Background(), "u1"))
	require.NoError(t, svc.ResetCheckout(context.Background(), "u1"), "reset is idempotent")

	sess := svc.Session("u1")
	assert.Equal(t, domain.StepAddress, sess.CurrentStep)
	assert.Nil(t, sess.Address)
	assert.Empty(t, sess.OrderID)
	assert.GreaterOrEqual(t, carts.clearCount(), 1)
}

func TestRazorpayOrder_RequiresOrder(t *testing.T) {
	svc := newTestService(&mockBackend{razorpayID: "rzp-1"}, &mockCarts{}, &mockAddrCache{}, &mockPublisher{})
	_, err := svc.RazorpayOrder(context.Background(), "u1")
	assert.ErrorIs(t, err, backend.ErrOrderNotFound)

	svc.store.SetOrder("u1", "ord-1", &domain.Order{ID: "ord-1", TotalPrice: 290})
	id, err := svc.RazorpayOrder(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "rzp-1", id)
}
