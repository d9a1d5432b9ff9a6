package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/nirogkart/storefront/internal/metrics"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrBackendDown     = errors.New("backend unavailable")
	ErrPaymentDeclined = errors.New("payment session could not be created")
)

// SessionCookie carries the backend session token. The HTTP layer stores the
// incoming cookie value in the request context; every outgoing backend call
// forwards it so the backend can authenticate the user.
const SessionCookie = "nk_session"

type ctxKey int

const sessionTokenKey ctxKey = iota

// WithSession returns a context carrying the caller's session token for
// forwarding on backend requests.
func WithSession(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionTokenKey, token)
}

// SessionFromContext returns the session token stashed by WithSession, or "".
func SessionFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(sessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// Client talks to the remote storefront API. All business logic (pricing,
// inventory, payment verification) lives behind it; this side only submits
// and reads projections. Requests forward the caller's session cookie when
// the context carries one.
type Client struct {
	http            *resty.Client
	shippingBreaker *gobreaker.CircuitBreaker
	paymentBreaker  *gobreaker.CircuitBreaker
}

func New(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0) // no automatic retries, failures degrade or surface

	return &Client{
		http:            httpClient,
		shippingBreaker: newBreaker("serviceability"),
		paymentBreaker:  newBreaker("payment"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(state)

			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// r builds an outgoing request bound to ctx, forwarding the caller's session
// cookie when the context carries one. Unauthenticated calls (the poller, the
// catalog warm-up) simply go out without it.
func (c *Client) r(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := SessionFromContext(ctx); token != "" {
		req.SetCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	return req
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func unmarshalBody(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
