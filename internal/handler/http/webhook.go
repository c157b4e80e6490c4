package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// MaxWebhookBodyBytes caps the webhook payload read.
const MaxWebhookBodyBytes = 64 << 10

// SignatureHeader carries the processor's payload signature.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment processor notifications.
type WebhookHandler struct {
	service *service.WebhookService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(svc *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{service: svc, logger: logger}
}

// HandleStripe handles POST /api/webhooks/stripe
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes))
	if err != nil {
		httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, flatError{Error: "payload too large"})
		return
	}

	err = h.service.Process(r.Context(), payload, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, apperrors.ErrWebhookVerification):
		var appErr *apperrors.AppError
		msg := "Webhook signature verification failed"
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		httputil.WriteJSON(w, http.StatusBadRequest, flatError{Error: msg})
	case errors.Is(err, apperrors.ErrServiceUnavail):
		httputil.WriteJSON(w, http.StatusServiceUnavailable, flatError{Error: "webhook endpoint is not configured"})
	default:
		h.logger.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, flatError{Error: "An error occurred processing the webhook"})
	}
}
