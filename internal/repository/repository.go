package repository

import (
	"context"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

// CartRepository persists cart contents keyed by cart ID.
type CartRepository interface {
	// Load returns the persisted cart, or a NotFound error when none exists.
	Load(ctx context.Context, cartID string) (*domain.Cart, error)

	// Save overwrites the persisted cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the persisted cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, cartID string) error
}

// IdempotencyStore records processed webhook event IDs.
type IdempotencyStore interface {
	// CheckAndMark marks eventID as seen and reports whether it was already
	// marked before this call.
	CheckAndMark(ctx context.Context, eventID string) (alreadyProcessed bool, err error)

	// Delete clears the mark so a retried delivery is processed again.
	Delete(ctx context.Context, eventID string) error
}

// OrderRepository stores one record per checkout session.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.OrderRecord) error

	// GetBySessionID returns a NotFound error when no record exists.
	GetBySessionID(ctx context.Context, sessionID string) (*domain.OrderRecord, error)

	// UpdateStatus sets the status and, when amountTotalCents > 0, the
	// charged total. It returns a NotFound error when no record exists and
	// a Conflict error when a paid record would leave the paid status.
	UpdateStatus(ctx context.Context, sessionID string, status domain.OrderStatus, amountTotalCents int64) error
}
