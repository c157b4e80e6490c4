package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the payment state of a checkout session.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusExpired OrderStatus = "expired"
)

// OrderRecord tracks one checkout session from creation to payment outcome.
type OrderRecord struct {
	SessionID        string      `json:"session_id"`
	CartID           string      `json:"cart_id"`
	OrderReference   string      `json:"order_reference"`
	Status           OrderStatus `json:"status"`
	SubtotalCents    int64       `json:"subtotal_cents"`
	DonationCents    int64       `json:"donation_cents"`
	AmountTotalCents int64       `json:"amount_total_cents"`
	Currency         string      `json:"currency"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsPaid reports whether payment for the session is confirmed.
func (o *OrderRecord) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// NewOrderReference returns a display-only reference such as "ULA-482913".
func NewOrderReference() string {
	return fmt.Sprintf("ULA-%06d", rand.IntN(1_000_000)) // #nosec G404 -- display reference, not a secret
}

// Confirmation is shown to the shopper once payment is verified.
type Confirmation struct {
	OrderReference string          `json:"order_reference"`
	SessionID      string          `json:"session_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Donation       decimal.Decimal `json:"donation"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
}

// DonationReceipt is shown to a donor once payment is verified.
type DonationReceipt struct {
	OrderReference string          `json:"order_reference"`
	SessionID      string          `json:"session_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// CheckoutSession is the processor-owned hosted payment page.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
