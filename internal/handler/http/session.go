package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/middleware"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

const (
	msgInvalidRequest = "Invalid request data"
	msgPaymentError   = "An error occurred processing your payment"
)

// flatError is the error body of the routes called by the processor and
// by session clients, which predate the /api/v1 envelope.
type flatError struct {
	Error string `json:"error"`
}

type sessionCreated struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// SessionHandler serves the checkout session endpoint used by storefront
// clients that build the cart themselves.
type SessionHandler struct {
	creator service.SessionCreator
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(creator service.SessionCreator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{creator: creator, logger: logger}
}

// CreateSession handles POST /api/checkout/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionInput
	if err := json.NewDecoder(io.LimitReader(r.Body, validator.MaxBodyBytes)).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, flatError{Error: msgInvalidRequest})
		return
	}
	req.CartID = middleware.CartIDFromRequest(r)

	sess, err := h.creator.CreateSession(r.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			httputil.WriteJSON(w, http.StatusBadRequest, flatError{Error: msgInvalidRequest})
			return
		}
		msg := msgPaymentError
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperrors.ErrSessionCreation) {
			msg = appErr.Message
		}
		h.logger.ErrorContext(r.Context(), "checkout session error",
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, flatError{Error: msg})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sessionCreated{SessionID: sess.SessionID, URL: sess.URL})
}
