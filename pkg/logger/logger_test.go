package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("storefront", "warn", &buf)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("redis unavailable")
	out := decodeLine(t, &buf)
	assert.Equal(t, "storefront", out["service"])
	assert.Equal(t, "WARN", out["level"])
	assert.Equal(t, "redis unavailable", out["msg"])
	assert.NotContains(t, out, "source")
}

func TestNewWithWriter_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("storefront", "debug", &buf).Debug("published event")
	assert.Contains(t, decodeLine(t, &buf), "source")
}

func TestWithContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("abcdef1234567890abcdef1234567890")
	spanID, _ := trace.SpanIDFromHex("1234567890abcdef")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	tests := []struct {
		name   string
		ctx    context.Context
		want   map[string]string
		absent []string
	}{
		{
			name:   "empty context",
			ctx:    context.Background(),
			absent: []string{"correlation_id", "cart_id", "trace_id", "span_id"},
		},
		{
			name: "correlation and cart",
			ctx:  WithCartID(WithCorrelationID(context.Background(), "req-1"), "cart-1"),
			want: map[string]string{"correlation_id": "req-1", "cart_id": "cart-1"},
		},
		{
			name:   "span",
			ctx:    trace.ContextWithSpanContext(context.Background(), spanCtx),
			want:   map[string]string{"trace_id": traceID.String(), "span_id": spanID.String()},
			absent: []string{"cart_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			WithContext(tt.ctx, NewWithWriter("storefront", "info", &buf)).Info("checkout started")

			out := decodeLine(t, &buf)
			for k, v := range tt.want {
				assert.Equal(t, v, out[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, out, k)
			}
		})
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, CartIDFromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(ctx))

	l := slog.New(slog.DiscardHandler)
	ctx = NewContext(WithCartID(WithCorrelationID(ctx, "req-9"), "cart-9"), l)
	assert.Equal(t, "req-9", CorrelationIDFromContext(ctx))
	assert.Equal(t, "cart-9", CartIDFromContext(ctx))
	assert.Same(t, l, FromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
