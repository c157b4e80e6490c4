package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/logger"
)

func TestRequestLogger_Fields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	spanID, _ := trace.SpanIDFromHex("b7ad6b7169203331")
	withSpan := func(ctx context.Context) context.Context {
		return trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))
	}

	tests := []struct {
		name    string
		prepare func(r *http.Request) *http.Request
		want    map[string]string
		absent  []string
	}{
		{
			name:    "bare request",
			prepare: func(r *http.Request) *http.Request { return r },
			absent:  []string{"correlation_id", "cart_id", "trace_id"},
		},
		{
			name: "correlation id",
			prepare: func(r *http.Request) *http.Request {
				return r.WithContext(logger.WithCorrelationID(r.Context(), "corr-42"))
			},
			want: map[string]string{"correlation_id": "corr-42"},
		},
		{
			name: "cart id header",
			prepare: func(r *http.Request) *http.Request {
				r.Header.Set(CartIDHeader, "cart-header")
				return r
			},
			want: map[string]string{"cart_id": "cart-header"},
		},
		{
			name: "cart id cookie",
			prepare: func(r *http.Request) *http.Request {
				r.AddCookie(&http.Cookie{Name: CartIDCookie, Value: "cart-cookie"})
				return r
			},
			want: map[string]string{"cart_id": "cart-cookie"},
		},
		{
			name: "span context",
			prepare: func(r *http.Request) *http.Request {
				return r.WithContext(withSpan(r.Context()))
			},
			want: map[string]string{"trace_id": traceID.String(), "span_id": spanID.String()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := RequestLogger(logger.NewWithWriter("storefront", "info", &buf))(
				http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
					logger.FromContext(r.Context()).Info("cart updated")
				}))

			req := tt.prepare(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))
			h.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "cart updated", entry["msg"])
			for k, v := range tt.want {
				assert.Equal(t, v, entry[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, entry, k)
			}
		})
	}
}

func TestCartIDFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	assert.Empty(t, CartIDFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CartIDCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", CartIDFromRequest(r))

	r.Header.Set(CartIDHeader, "from-header")
	assert.Equal(t, "from-header", CartIDFromRequest(r))
}
