package middleware

import (
	"log/slog"
	"net/http"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/logger"
)

// Cart session identity travels in this header or cookie.
const (
	CartIDHeader = "X-Cart-ID"
	CartIDCookie = "cart_id"
)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, cart_id, trace_id, and span_id, then stores it in
// context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging (which sets correlation_id) and Tracing
// (which sets the OpenTelemetry span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cartID := CartIDFromRequest(r); cartID != "" {
				ctx = logger.WithCartID(ctx, cartID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CartIDFromRequest returns the cart session ID sent by the client, preferring
// the header over the cookie. It returns "" when neither is present.
func CartIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(CartIDHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(CartIDCookie); err == nil {
		return c.Value
	}
	return ""
}
