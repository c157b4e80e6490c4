package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Every AppError wraps exactly one of them so callers can
// branch with errors.Is without knowing the concrete constructor.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
	ErrConflict            = errors.New("conflict")
	ErrServiceUnavail      = errors.New("service unavailable")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrSessionCreation     = errors.New("checkout session creation failed")
	ErrWebhookVerification = errors.New("webhook verification failed")
	ErrPersistence         = errors.New("cart persistence failed")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 validation error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// EmptyCart is the validation error returned when checkout is attempted
// without any cart lines.
func EmptyCart() *AppError {
	return &AppError{
		Code:    "EMPTY_CART",
		Message: "cart is empty",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Internal creates a 500 error. The wrapped error is never shown to clients.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// TooManyRequests creates a 429 error.
func TooManyRequests() *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: "too many requests, please retry later",
		Status:  http.StatusTooManyRequests,
		Err:     ErrTooManyRequests,
	}
}

// SessionCreation creates a 502 error carrying the payment processor's message.
func SessionCreation(message string) *AppError {
	if message == "" {
		message = "checkout session could not be created"
	}
	return &AppError{
		Code:    "SESSION_CREATION_FAILED",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     ErrSessionCreation,
	}
}

// WebhookVerification creates a 400 error for a rejected webhook signature.
func WebhookVerification(message string) *AppError {
	return &AppError{
		Code:    "WEBHOOK_VERIFICATION_FAILED",
		Message: fmt.Sprintf("webhook signature verification failed: %s", message),
		Status:  http.StatusBadRequest,
		Err:     ErrWebhookVerification,
	}
}

// Persistence wraps a cart storage failure. It is logged by the cart store and
// never returned to clients.
func Persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// PaymentNotConfirmed creates a 409 error for a checkout return whose session
// is not (yet) paid.
func PaymentNotConfirmed(sessionID string) *AppError {
	return &AppError{
		Code:    "PAYMENT_NOT_CONFIRMED",
		Message: fmt.Sprintf("payment for session %s has not been confirmed", sessionID),
		Status:  http.StatusConflict,
		Err:     ErrPaymentNotConfirmed,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// IsRetryable reports whether the client may retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSessionCreation) ||
		errors.Is(err, ErrServiceUnavail) ||
		errors.Is(err, ErrTooManyRequests)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrPaymentNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWebhookVerification):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrSessionCreation):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
