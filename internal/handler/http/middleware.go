package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/logger"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/middleware"
)

type contextKey string

const cartIDKey contextKey = "cart_id"

// CartCookieConfig controls the cart_id cookie issued to new shoppers.
type CartCookieConfig struct {
	MaxAge int
	Secure bool
}

// CartSession resolves the cart ID from the X-Cart-ID header or cart_id
// cookie. Shoppers without a valid ID get a fresh UUID. The ID is echoed in
// both the header and the cookie and stored in the request context.
func CartSession(cfg CartCookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := middleware.CartIDFromRequest(r)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			w.Header().Set(middleware.CartIDHeader, id)
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.CartIDCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   cfg.MaxAge,
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), cartIDKey, id)
			ctx = logger.WithCartID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// cartIDFromContext returns the cart ID stored by CartSession.
func cartIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(cartIDKey).(string)
	return id
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
