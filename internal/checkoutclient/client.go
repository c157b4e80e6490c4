// Package checkoutclient calls a separately deployed checkout session
// endpoint over HTTP.
package checkoutclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httpclient"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/middleware"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// SessionsPath is the path of the session endpoint under the base URL.
const SessionsPath = "/api/checkout/sessions"

const maxResponseBytes = 64 << 10

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client creates checkout sessions through the remote endpoint.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

var _ service.SessionCreator = (*Client)(nil)

// New creates a client for the endpoint served at baseURL.
func New(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateSession posts the cart snapshot and returns the created session.
// Every failure is reported as a session creation error carrying the
// endpoint's message.
func (c *Client) CreateSession(ctx context.Context, input *service.CreateSessionInput) (*domain.CheckoutSession, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SessionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if input.CartID != "" {
		req.Header.Set(middleware.CartIDHeader, input.CartID)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.SessionCreation("could not read checkout response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, msg := httpclient.ErrorMessage(raw)
		c.logger.WarnContext(ctx, "checkout endpoint rejected session",
			slog.Int("status", resp.StatusCode),
			slog.String("error", msg),
		)
		return nil, apperrors.SessionCreation(msg)
	}

	var out sessionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.SessionCreation("invalid checkout response")
	}
	if out.URL == "" {
		return nil, apperrors.SessionCreation("no checkout URL returned")
	}
	return &domain.CheckoutSession{SessionID: out.SessionID, URL: out.URL}, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		_, msg := httpclient.ErrorMessage(statusErr.Body)
		c.logger.WarnContext(ctx, "checkout endpoint failed",
			slog.Int("status", statusErr.StatusCode),
			slog.String("error", msg),
		)
		return apperrors.SessionCreation(msg)
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return apperrors.SessionCreation("checkout is temporarily unavailable, please retry shortly")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.SessionCreation("payment processor did not respond in time")
	default:
		c.logger.ErrorContext(ctx, "call checkout endpoint",
			slog.String("error", err.Error()),
		)
		return apperrors.SessionCreation("")
	}
}
