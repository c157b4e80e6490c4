package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/catalog"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// DonationPresets are the suggested one-off donation amounts in dollars.
var DonationPresets = []int{25, 50, 100, 250}

// DonationInput holds the parameters of a one-off donation.
type DonationInput struct {
	Amount     float64 `json:"amount" validate:"gte=1,lte=10000"`
	SuccessURL string  `json:"success_url" validate:"required,http_url"`
	CancelURL  string  `json:"cancel_url" validate:"required,http_url"`
}

// MarketingService serves subscription plans and donation checkouts.
type MarketingService struct {
	catalog        *catalog.Catalog
	provider       provider.Provider
	orders         repository.OrderRepository
	logger         *slog.Logger
	sessionTimeout time.Duration
}

// NewMarketingService creates a new marketing service.
func NewMarketingService(cat *catalog.Catalog, p provider.Provider, orders repository.OrderRepository, logger *slog.Logger, sessionTimeout time.Duration) *MarketingService {
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}
	return &MarketingService{
		catalog:        cat,
		provider:       p,
		orders:         orders,
		logger:         logger,
		sessionTimeout: sessionTimeout,
	}
}

// Plans returns the subscription plans.
func (s *MarketingService) Plans(_ context.Context) []domain.SubscriptionPlan {
	return s.catalog.Plans()
}

// StartDonation opens a hosted checkout session for a one-off donation.
func (s *MarketingService) StartDonation(ctx context.Context, input DonationInput) (*domain.CheckoutSession, error) {
	if err := validator.Validate(input); err != nil {
		recordCheckout(stageDonation, outcomeInvalid)
		return nil, err
	}

	amount := decimal.NewFromFloat(input.Amount)
	cents := domain.ToMinorUnits(amount)
	reference := domain.NewOrderReference()

	callCtx, cancel := context.WithTimeout(ctx, s.sessionTimeout)
	defer cancel()

	sess, err := s.provider.CreateCheckoutSession(callCtx, &provider.SessionRequest{
		LineItems: []provider.LineItem{{
			Name:            DonationItemName,
			Description:     "One-time donation supporting local arts education",
			UnitAmountCents: cents,
			Quantity:        1,
		}},
		Currency:   CheckoutCurrency,
		SuccessURL: withSessionID(input.SuccessURL),
		CancelURL:  input.CancelURL,
		Metadata: map[string]string{
			MetadataDonationAmount: amount.StringFixed(2),
			MetadataOrderReference: reference,
		},
	})
	if err != nil {
		recordCheckout(stageDonation, outcomeFailed)
		s.logger.ErrorContext(ctx, "donation session creation failed",
			slog.String("error", err.Error()),
		)
		return nil, sessionCreationError(err)
	}
	if sess.URL == "" {
		recordCheckout(stageDonation, outcomeFailed)
		return nil, apperrors.SessionCreation("no checkout URL returned")
	}

	now := time.Now().UTC()
	if err := s.orders.Create(ctx, &domain.OrderRecord{
		SessionID:        sess.ID,
		OrderReference:   reference,
		Status:           domain.OrderStatusPending,
		DonationCents:    cents,
		AmountTotalCents: cents,
		Currency:         CheckoutCurrency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to record pending donation",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	recordCheckout(stageDonation, outcomeSuccess)
	s.logger.InfoContext(ctx, "donation checkout started",
		slog.String("session_id", sess.ID),
		slog.String("amount", amount.StringFixed(2)),
	)
	return &domain.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// ConfirmDonation returns the receipt for a paid donation session. Sessions
// that belong to a cart checkout are not found here.
func (s *MarketingService) ConfirmDonation(ctx context.Context, sessionID string) (*domain.DonationReceipt, error) {
	if sessionID == "" {
		recordCheckout(stageThanks, outcomeInvalid)
		return nil, apperrors.InvalidInput("session_id is required")
	}

	record, err := s.verifyDonation(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentNotConfirmed) {
			recordCheckout(stageThanks, outcomePending)
		} else {
			recordCheckout(stageThanks, outcomeFailed)
		}
		return nil, err
	}

	recordCheckout(stageThanks, outcomeSuccess)
	s.logger.InfoContext(ctx, "donation confirmed",
		slog.String("session_id", sessionID),
		slog.String("order_reference", record.OrderReference),
	)
	return &domain.DonationReceipt{
		OrderReference: record.OrderReference,
		SessionID:      sessionID,
		Amount:         domain.FromMinorUnits(record.DonationCents),
		Currency:       record.Currency,
	}, nil
}

func (s *MarketingService) verifyDonation(ctx context.Context, sessionID string) (*domain.OrderRecord, error) {
	record, err := s.orders.GetBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		if record.CartID != "" {
			return nil, apperrors.NotFound("donation session", sessionID)
		}
		if record.IsPaid() {
			return record, nil
		}
	case errors.Is(err, apperrors.ErrNotFound):
		record = nil
	default:
		return nil, fmt.Errorf("get order record: %w", err)
	}

	details, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		var pe *provider.Error
		if errors.As(err, &pe) && pe.StatusCode == 404 {
			return nil, apperrors.NotFound("donation session", sessionID)
		}
		return nil, apperrors.ServiceUnavailable("payment status could not be verified, please retry")
	}
	if record == nil && cartIDFromSession(details) != "" {
		return nil, apperrors.NotFound("donation session", sessionID)
	}
	if !details.IsPaid() {
		return nil, apperrors.PaymentNotConfirmed(sessionID)
	}

	if record != nil {
		if err := s.orders.UpdateStatus(ctx, sessionID, domain.OrderStatusPaid, details.AmountTotalCents); err != nil {
			s.logger.ErrorContext(ctx, "failed to promote donation record",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		record.Status = domain.OrderStatusPaid
		return record, nil
	}

	record = recordFromSession(details, "", domain.OrderStatusPaid)
	if record.DonationCents == 0 {
		record.DonationCents = details.AmountTotalCents
	}
	if err := s.orders.Create(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to record confirmed donation",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return record, nil
}
