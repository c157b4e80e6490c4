// Package mock provides an in-process checkout provider for development and
// tests. Sessions live in memory and are optionally reported as paid at once.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
)

// sessionIDPlaceholder is filled in on the success URL the way the hosted
// page of a real processor does.
const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// Provider is a mock checkout provider.
type Provider struct {
	mu          sync.Mutex
	baseURL     string
	autoConfirm bool
	sessions    map[string]*session
}

type session struct {
	details    provider.SessionDetails
	successURL string
	cancelURL  string
}

// NewProvider creates a mock provider. Session URLs point at baseURL; with
// autoConfirm every session is reported paid as soon as it is created.
func NewProvider(baseURL string, autoConfirm bool) *Provider {
	return &Provider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		autoConfirm: autoConfirm,
		sessions:    make(map[string]*session),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateCheckoutSession records a session and returns a local URL for it.
func (p *Provider) CreateCheckoutSession(_ context.Context, req *provider.SessionRequest) (*provider.Session, error) {
	id := "cs_mock_" + uuid.New().String()

	var total int64
	for _, item := range req.LineItems {
		total += item.UnitAmountCents * item.Quantity
	}

	status := provider.PaymentStatusUnpaid
	if p.autoConfirm {
		status = provider.PaymentStatusPaid
	}

	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	p.mu.Lock()
	p.sessions[id] = &session{
		details: provider.SessionDetails{
			ID:                id,
			PaymentStatus:     status,
			AmountTotalCents:  total,
			Currency:          req.Currency,
			ClientReferenceID: req.ClientReferenceID,
			Metadata:          metadata,
		},
		successURL: strings.ReplaceAll(req.SuccessURL, sessionIDPlaceholder, id),
		cancelURL:  req.CancelURL,
	}
	p.mu.Unlock()

	return &provider.Session{ID: id, URL: p.baseURL + "/mock-checkout/" + id}, nil
}

// GetCheckoutSession returns a copy of a recorded session.
func (p *Provider) GetCheckoutSession(_ context.Context, sessionID string) (*provider.SessionDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, &provider.Error{StatusCode: 404, Code: "resource_missing", Message: "no such checkout session: " + sessionID}
	}
	out := s.details
	return &out, nil
}

// MarkPaid flips a recorded session to paid.
func (p *Provider) MarkPaid(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return apperrors.NotFound("checkout session", sessionID)
	}
	s.details.PaymentStatus = provider.PaymentStatusPaid
	return nil
}

// ReturnURL is where the hosted page sends the shopper back to: the success
// URL with the session ID filled in, or the cancel URL when cancelled.
func (p *Provider) ReturnURL(sessionID string, cancelled bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return "", apperrors.NotFound("checkout session", sessionID)
	}
	if cancelled {
		return s.cancelURL, nil
	}
	return s.successURL, nil
}
