package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"
)

// HostedPage resolves where a locally hosted payment page returns the
// shopper to.
type HostedPage interface {
	ReturnURL(sessionID string, cancelled bool) (string, error)
}

// HostedPageHandler stands in for the processor's payment page when the
// mock provider is in use.
type HostedPageHandler struct {
	page   HostedPage
	logger *slog.Logger
}

// NewHostedPageHandler creates a new hosted page handler.
func NewHostedPageHandler(page HostedPage, logger *slog.Logger) *HostedPageHandler {
	return &HostedPageHandler{page: page, logger: logger}
}

// Return handles GET /mock-checkout/{id}. It redirects to the session's
// success URL, or to its cancel URL when called with ?cancel=true.
func (h *HostedPageHandler) Return(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	cancelled := r.URL.Query().Get("cancel") == "true"

	target, err := h.page.ReturnURL(sessionID, cancelled)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.DebugContext(r.Context(), "hosted page return",
		slog.String("session_id", sessionID),
		slog.Bool("cancelled", cancelled),
	)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
