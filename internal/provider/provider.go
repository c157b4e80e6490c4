package provider

import (
	"context"
	"errors"
	"fmt"
)

// Payment statuses reported for a hosted checkout session.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Webhook event types handled by the storefront.
const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed = "checkout.session.async_payment_failed"
	EventCheckoutExpired            = "checkout.session.expired"
	EventPaymentIntentFailed        = "payment_intent.payment_failed"
)

// LineItem is one priced entry on the hosted payment page.
type LineItem struct {
	Name            string
	Description     string
	Images          []string
	UnitAmountCents int64
	Quantity        int64
}

// SessionRequest holds everything needed to open a hosted checkout session.
type SessionRequest struct {
	LineItems         []LineItem
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
	AllowedCountries  []string
}

// Session is a newly created hosted checkout session.
type Session struct {
	ID  string
	URL string
}

// SessionDetails is the processor's view of an existing checkout session.
type SessionDetails struct {
	ID                string
	PaymentStatus     string
	AmountTotalCents  int64
	Currency          string
	ClientReferenceID string
	Metadata          map[string]string
}

// IsPaid reports whether the session needs no further payment.
func (d *SessionDetails) IsPaid() bool {
	return d.PaymentStatus == PaymentStatusPaid || d.PaymentStatus == PaymentStatusNoPaymentRequired
}

// Event is a verified webhook notification.
type Event struct {
	ID      string
	Type    string
	Session *SessionDetails

	// Set for payment_intent events.
	PaymentIntentID string
	FailureMessage  string
}

// Provider defines the interface for hosted checkout integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateCheckoutSession opens a hosted payment page for the given items.
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)

	// GetCheckoutSession fetches the current state of a session.
	GetCheckoutSession(ctx context.Context, sessionID string) (*SessionDetails, error)
}

// WebhookVerifier authenticates raw webhook payloads.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// Error is a failure reported by the payment processor.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error (%d): %s", e.StatusCode, e.Message)
}

// ErrorMessage extracts the processor's message from err. Transport
// failures carry no message fit for a shopper and yield "".
func ErrorMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
