package http

import (
	"log/slog"
	"net/http"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// CheckoutHandler handles HTTP requests for the storefront checkout flow.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// BeginCheckout handles POST /api/v1/checkout. The hosted payment page URL is
// returned in the body and the Location header.
func (h *CheckoutHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	var req service.ReturnURLs
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	sess, err := h.service.BeginCheckout(r.Context(), cartIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", sess.URL)
	httputil.WriteData(w, http.StatusCreated, sess)
}

// CheckoutSuccess handles GET /api/v1/checkout/success?session_id=
func (h *CheckoutHandler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	conf, err := h.service.OnCheckoutReturn(r.Context(), cartIDFromContext(r.Context()), r.URL.Query().Get("session_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, conf)
}
