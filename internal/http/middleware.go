package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nirogkart/storefront/internal/backend"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"

	// SessionCookie carries the backend session. The backend validates it on
	// every proxied call; here it also identifies the user for session and
	// cart lookup.
	SessionCookie = backend.SessionCookie
)

// SessionAuthMiddleware resolves the user from the session cookie. Requests
// without one stay anonymous; the checkout guard turns that into a /login
// redirect rather than a hard error. The raw cookie value is also stashed for
// the backend client, which forwards it on every outgoing call.
func SessionAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, cookie.Value)
		ctx = backend.WithSession(ctx, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
