// Package stripe implements the hosted checkout provider on Stripe Checkout.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Config holds the Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Environment   string
}

// sessionAPI is the subset of the Checkout Sessions API the provider uses.
type sessionAPI interface {
	New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type sessionClient struct{}

func (sessionClient) New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return session.New(params)
}

func (sessionClient) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return session.Get(id, params)
}

// Provider creates and reads Stripe Checkout sessions.
type Provider struct {
	sessions    sessionAPI
	environment string
}

// NewProvider validates the key against the environment and configures the
// Stripe client.
func NewProvider(cfg Config, logger *slog.Logger) (*Provider, error) {
	env, err := normalizeEnv(cfg.Environment)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.SecretKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logger != nil {
		logger.Info("stripe provider initialized", slog.String("environment", env))
	}

	return &Provider{sessions: sessionClient{}, environment: env}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stripe"
}

// Environment reports the normalized Stripe environment in use.
func (p *Provider) Environment() string {
	return p.environment
}

// CreateCheckoutSession opens a payment-mode Checkout session for card payments.
func (p *Provider) CreateCheckoutSession(ctx context.Context, req *provider.SessionRequest) (*provider.Session, error) {
	params := buildSessionParams(req)

	s, err := p.sessions.New(ctx, params)
	if err != nil {
		return nil, convertError(err)
	}

	return &provider.Session{ID: s.ID, URL: s.URL}, nil
}

// GetCheckoutSession retrieves a Checkout session by ID.
func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.SessionDetails, error) {
	s, err := p.sessions.Get(ctx, sessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, convertError(err)
	}
	return toSessionDetails(s), nil
}

func buildSessionParams(req *provider.SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if len(item.Images) > 0 {
			productData.Images = stripe.StringSlice(item.Images)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	return params
}

func toSessionDetails(s *stripe.CheckoutSession) *provider.SessionDetails {
	return &provider.SessionDetails{
		ID:                s.ID,
		PaymentStatus:     string(s.PaymentStatus),
		AmountTotalCents:  s.AmountTotal,
		Currency:          string(s.Currency),
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}
}

// convertError maps Stripe API errors to provider errors carrying the
// processor's message.
func convertError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &provider.Error{
			StatusCode: se.HTTPStatusCode,
			Code:       string(se.Code),
			Message:    se.Msg,
		}
	}
	return fmt.Errorf("stripe request: %w", err)
}

// WebhookVerifier checks Stripe-Signature headers with the endpoint secret.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errSecretRequired
	}
	return &WebhookVerifier{secret: secret}, nil
}

// VerifyWebhook authenticates payload and decodes the checkout or payment
// intent object it carries.
func (v *WebhookVerifier) VerifyWebhook(payload []byte, signatureHeader string) (*provider.Event, error) {
	if signatureHeader == "" {
		return nil, errors.New("stripe signature missing")
	}

	event, err := webhook.ConstructEvent(payload, signatureHeader, v.secret)
	if err != nil {
		return nil, err
	}

	out := &provider.Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "checkout.session."):
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = toSessionDetails(&cs)
	case out.Type == provider.EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
	}

	return out, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
