package http

import (
	"log/slog"
	"net/http"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// MarketingHandler serves subscription plans and donations.
type MarketingHandler struct {
	service *service.MarketingService
	logger  *slog.Logger
}

// NewMarketingHandler creates a new marketing HTTP handler.
func NewMarketingHandler(svc *service.MarketingService, logger *slog.Logger) *MarketingHandler {
	return &MarketingHandler{service: svc, logger: logger}
}

type donationOptions struct {
	Presets []int `json:"presets"`
	Min     int   `json:"min"`
	Max     int   `json:"max"`
}

// Plans handles GET /api/v1/subscriptions/plans
func (h *MarketingHandler) Plans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Plans(r.Context()))
}

// DonationOptions handles GET /api/v1/donations/options
func (h *MarketingHandler) DonationOptions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, donationOptions{Presets: service.DonationPresets, Min: 1, Max: 10000})
}

// StartDonation handles POST /api/v1/donations
func (h *MarketingHandler) StartDonation(w http.ResponseWriter, r *http.Request) {
	var req service.DonationInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	sess, err := h.service.StartDonation(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", sess.URL)
	httputil.WriteData(w, http.StatusCreated, sess)
}

// DonationSuccess handles GET /api/v1/donations/success?session_id=
func (h *MarketingHandler) DonationSuccess(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.ConfirmDonation(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, receipt)
}
