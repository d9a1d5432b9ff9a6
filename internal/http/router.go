package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nirogkart/storefront/internal/metrics"
)

// NewRouter wires the storefront surface. requestTimeout bounds every
// handler; the checkout guard runs inside the handlers it protects.
func NewRouter(
	checkoutHandler *CheckoutHandler,
	cartHandler *CartHandler,
	ordersHandler *OrdersHandler,
	productHandler *ProductHandler,
	requestTimeout time.Duration,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(SessionAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/session", checkoutHandler.GetSession)
			r.Get("/addresses", checkoutHandler.ListAddresses)
			r.Post("/address", checkoutHandler.SubmitAddress)
			r.Get("/shipping", checkoutHandler.GetShippingOptions)
			r.Post("/shipping", checkoutHandler.ChooseShipping)
			r.Post("/payment", checkoutHandler.StartPayment)
			r.Post("/payment/cancel", checkoutHandler.CancelPolling)
			r.Post("/payment/razorpay", checkoutHandler.RazorpayOrder)
			r.Get("/status", checkoutHandler.PaymentStatus)
			r.Get("/success", checkoutHandler.Success)
			r.Post("/reset", checkoutHandler.Reset)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{id}", ordersHandler.GetOrder)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})
	})

	return r
}
