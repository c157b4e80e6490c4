package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// DefaultSessionTimeout bounds a session creation call.
const DefaultSessionTimeout = 15 * time.Second

// SessionIDPlaceholder is replaced by the processor with the session ID.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// ReturnURLs are where the hosted payment page sends the shopper back to.
type ReturnURLs struct {
	SuccessURL string `json:"success_url" validate:"required,http_url"`
	CancelURL  string `json:"cancel_url" validate:"required,http_url"`
}

// SessionLookup reads a checkout session from the processor.
type SessionLookup interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*provider.SessionDetails, error)
}

// CheckoutService hands a cart over to the hosted payment page and confirms
// the order when the shopper returns.
type CheckoutService struct {
	carts          *CartService
	creator        SessionCreator
	orders         repository.OrderRepository
	lookup         SessionLookup
	logger         *slog.Logger
	sessionTimeout time.Duration
}

// NewCheckoutService creates a new checkout service. lookup may be nil, in
// which case only the order-record store can confirm a payment.
func NewCheckoutService(
	carts *CartService,
	creator SessionCreator,
	orders repository.OrderRepository,
	lookup SessionLookup,
	logger *slog.Logger,
	sessionTimeout time.Duration,
) *CheckoutService {
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}
	return &CheckoutService{
		carts:          carts,
		creator:        creator,
		orders:         orders,
		lookup:         lookup,
		logger:         logger,
		sessionTimeout: sessionTimeout,
	}
}

// withSessionID appends session_id={CHECKOUT_SESSION_ID} unless the URL
// already carries a session_id parameter.
func withSessionID(successURL string) string {
	if strings.Contains(successURL, "session_id=") {
		return successURL
	}
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id=" + SessionIDPlaceholder
}

// BeginCheckout snapshots the cart and opens a hosted checkout session for
// it. The cart itself is never modified.
func (s *CheckoutService) BeginCheckout(ctx context.Context, cartID string, urls ReturnURLs) (*domain.CheckoutSession, error) {
	store, err := s.carts.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}

	snap := store.Snapshot()
	if snap.IsEmpty() {
		recordCheckout(stageBegin, outcomeInvalid)
		return nil, apperrors.EmptyCart()
	}
	if err := validator.Validate(urls); err != nil {
		recordCheckout(stageBegin, outcomeInvalid)
		return nil, err
	}

	items := make([]SessionItemInput, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = SessionItemInput{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    l.UnitPrice.InexactFloat64(),
			Image:    l.ImageRef,
			Quantity: l.Quantity,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.sessionTimeout)
	defer cancel()

	sess, err := s.creator.CreateSession(callCtx, &CreateSessionInput{
		CartItems:  items,
		SuccessURL: withSessionID(urls.SuccessURL),
		CancelURL:  urls.CancelURL,
		CartID:     cartID,
	})
	if err != nil {
		recordCheckout(stageBegin, outcomeFailed)
		s.logger.WarnContext(ctx, "begin checkout failed",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
		return nil, sessionCreationError(err)
	}
	if sess.URL == "" {
		recordCheckout(stageBegin, outcomeFailed)
		return nil, apperrors.SessionCreation("no checkout URL returned")
	}

	recordCheckout(stageBegin, outcomeSuccess)
	s.logger.InfoContext(ctx, "checkout started",
		slog.String("cart_id", cartID),
		slog.String("session_id", sess.SessionID),
		slog.Int("item_count", snap.ItemCount()),
	)
	return sess, nil
}

// OnCheckoutReturn confirms payment for sessionID, clears the cart and
// returns the confirmation. An unpaid session leaves the cart intact.
func (s *CheckoutService) OnCheckoutReturn(ctx context.Context, cartID, sessionID string) (*domain.Confirmation, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session_id is required")
	}

	store, err := s.carts.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}

	record, err := s.verifyPayment(ctx, cartID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentNotConfirmed) {
			recordCheckout(stageReturn, outcomePending)
		} else {
			recordCheckout(stageReturn, outcomeFailed)
		}
		return nil, err
	}

	subtotal := domain.FromMinorUnits(record.SubtotalCents)
	if record.SubtotalCents == 0 {
		subtotal = store.Subtotal()
	}
	totals := domain.ComputeTotals(subtotal, 0)

	store.ClearCart(ctx)

	recordCheckout(stageReturn, outcomeSuccess)
	s.logger.InfoContext(ctx, "checkout confirmed",
		slog.String("cart_id", cartID),
		slog.String("session_id", sessionID),
		slog.String("order_reference", record.OrderReference),
	)

	return &domain.Confirmation{
		OrderReference: record.OrderReference,
		SessionID:      sessionID,
		Subtotal:       totals.Subtotal,
		Donation:       totals.Donation,
		Tax:            totals.Tax,
		Total:          totals.EstimatedTotal,
	}, nil
}

// verifyPayment returns the paid order record for the session. The record
// written by the webhook is trusted first; otherwise the processor is asked
// and the record is promoted or created from its answer.
func (s *CheckoutService) verifyPayment(ctx context.Context, cartID, sessionID string) (*domain.OrderRecord, error) {
	record, err := s.orders.GetBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		if record.CartID != cartID {
			return nil, apperrors.NotFound("checkout session", sessionID)
		}
		if record.IsPaid() {
			return record, nil
		}
	case errors.Is(err, apperrors.ErrNotFound):
		record = nil
	default:
		return nil, fmt.Errorf("get order record: %w", err)
	}

	if s.lookup == nil {
		if record == nil {
			return nil, apperrors.NotFound("checkout session", sessionID)
		}
		return nil, apperrors.PaymentNotConfirmed(sessionID)
	}

	details, err := s.lookup.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		var pe *provider.Error
		if errors.As(err, &pe) && pe.StatusCode == 404 {
			return nil, apperrors.NotFound("checkout session", sessionID)
		}
		return nil, apperrors.ServiceUnavailable("payment status could not be verified, please retry")
	}
	if record == nil && details.ClientReferenceID != cartID {
		return nil, apperrors.NotFound("checkout session", sessionID)
	}
	if !details.IsPaid() {
		return nil, apperrors.PaymentNotConfirmed(sessionID)
	}

	if record != nil {
		if err := s.orders.UpdateStatus(ctx, sessionID, domain.OrderStatusPaid, details.AmountTotalCents); err != nil {
			s.logger.ErrorContext(ctx, "failed to promote order record",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		record.Status = domain.OrderStatusPaid
		return record, nil
	}

	record = recordFromSession(details, cartID, domain.OrderStatusPaid)
	if err := s.orders.Create(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to record confirmed order",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return record, nil
}
