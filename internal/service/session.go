package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/validator"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// Hosted checkout constants.
const (
	CheckoutCurrency    = "usd"
	DonationItemName    = "Donation to Arts Education"
	DonationDescription = "10% of your purchase goes to supporting local arts education"
)

// ShippingCountries are the countries a shipping address may be collected for.
var ShippingCountries = []string{"US", "CA"}

// Metadata keys attached to checkout sessions.
const (
	MetadataDonationAmount = "donationAmount"
	MetadataCartID         = "cart_id"
	MetadataOrderReference = "order_reference"
	MetadataSubtotalCents  = "subtotal_cents"
)

// SessionItemInput is one cart entry in a session creation request.
type SessionItemInput struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity" validate:"gte=1,lte=100"`
}

// CreateSessionInput is the request body of the checkout session endpoint.
// CartID travels in the X-Cart-ID header, not the body.
type CreateSessionInput struct {
	CartItems  []SessionItemInput `json:"cartItems" validate:"required,min=1,max=50,dive"`
	SuccessURL string             `json:"successUrl" validate:"required,http_url"`
	CancelURL  string             `json:"cancelUrl" validate:"required,http_url"`
	CartID     string             `json:"-"`
}

// SessionCreator opens hosted checkout sessions. SessionService does it in
// process; checkoutclient.Client calls a remote intermediary.
type SessionCreator interface {
	CreateSession(ctx context.Context, input *CreateSessionInput) (*domain.CheckoutSession, error)
}

// SessionService builds line items server side and opens the session with
// the payment provider.
type SessionService struct {
	provider provider.Provider
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(p provider.Provider, orders repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *SessionService {
	return &SessionService{
		provider: p,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// buildLineItems prices each entry at round(price*100) cents and appends the
// donation line at round(subtotal*0.10*100) cents.
func buildLineItems(items []SessionItemInput) ([]provider.LineItem, decimal.Decimal) {
	lineItems := make([]provider.LineItem, 0, len(items)+1)
	subtotal := decimal.Zero

	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))

		li := provider.LineItem{
			Name:            item.Name,
			UnitAmountCents: domain.ToMinorUnits(price),
			Quantity:        int64(item.Quantity),
		}
		if item.Image != "" {
			li.Images = []string{item.Image}
		}
		lineItems = append(lineItems, li)
	}

	lineItems = append(lineItems, provider.LineItem{
		Name:            DonationItemName,
		Description:     DonationDescription,
		UnitAmountCents: domain.DonationCents(subtotal),
		Quantity:        1,
	})

	return lineItems, subtotal
}

// CreateSession validates the request, opens a hosted checkout session and
// records it as a pending order.
func (s *SessionService) CreateSession(ctx context.Context, input *CreateSessionInput) (*domain.CheckoutSession, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("Invalid request data")
	}
	if err := validator.Validate(input); err != nil {
		recordCheckout(stageSession, outcomeInvalid)
		return nil, err
	}

	lineItems, subtotal := buildLineItems(input.CartItems)
	donation := subtotal.Mul(domain.DonationRate)
	reference := domain.NewOrderReference()

	metadata := map[string]string{
		MetadataDonationAmount: donation.StringFixed(2),
		MetadataOrderReference: reference,
		MetadataSubtotalCents:  strconv.FormatInt(domain.ToMinorUnits(subtotal), 10),
	}
	if input.CartID != "" {
		metadata[MetadataCartID] = input.CartID
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, &provider.SessionRequest{
		LineItems:         lineItems,
		Currency:          CheckoutCurrency,
		SuccessURL:        input.SuccessURL,
		CancelURL:         input.CancelURL,
		ClientReferenceID: input.CartID,
		Metadata:          metadata,
		AllowedCountries:  ShippingCountries,
	})
	if err != nil {
		recordCheckout(stageSession, outcomeFailed)
		s.logger.ErrorContext(ctx, "checkout session creation failed",
			slog.String("provider", s.provider.Name()),
			slog.String("cart_id", input.CartID),
			slog.String("error", err.Error()),
		)
		return nil, sessionCreationError(err)
	}
	if sess.URL == "" {
		recordCheckout(stageSession, outcomeFailed)
		return nil, apperrors.SessionCreation("no checkout URL returned")
	}

	now := time.Now().UTC()
	subtotalCents := domain.ToMinorUnits(subtotal)
	donationCents := domain.DonationCents(subtotal)
	record := &domain.OrderRecord{
		SessionID:        sess.ID,
		CartID:           input.CartID,
		OrderReference:   reference,
		Status:           domain.OrderStatusPending,
		SubtotalCents:    subtotalCents,
		DonationCents:    donationCents,
		AmountTotalCents: subtotalCents + donationCents,
		Currency:         CheckoutCurrency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.orders.Create(ctx, record); err != nil {
		// The session exists at the processor; the webhook can still
		// recreate the record from session metadata.
		s.logger.ErrorContext(ctx, "failed to record pending order",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCheckoutStarted(ctx, event.CheckoutStartedData{
		CartID:        input.CartID,
		SessionID:     sess.ID,
		SubtotalCents: subtotalCents,
		DonationCents: donationCents,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.started event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	recordCheckout(stageSession, outcomeSuccess)
	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sess.ID),
		slog.String("cart_id", input.CartID),
		slog.Int("line_items", len(lineItems)),
	)

	return &domain.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// sessionCreationError converts a provider or transport failure into a
// SessionCreationError carrying the processor's message.
func sessionCreationError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrSessionCreation):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.SessionCreation("payment processor did not respond in time")
	case errors.Is(err, context.Canceled):
		return apperrors.SessionCreation("checkout was canceled")
	default:
		return apperrors.SessionCreation(provider.ErrorMessage(err))
	}
}
