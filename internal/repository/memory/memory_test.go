package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

func TestCartRepository_RoundTripIsCopied(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	cart := &domain.Cart{ID: "c1", Lines: []domain.CartLine{{ProductID: "p", UnitPrice: decimal.NewFromInt(5), Quantity: 1}}}
	require.NoError(t, repo.Save(ctx, cart))
	cart.Lines[0].Quantity = 99

	got, err := repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Lines[0].Quantity)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.Load(ctx, "c1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestIdempotencyStore_Expiry(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	seen, err := store.CheckAndMark(ctx, "evt")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, _ = store.CheckAndMark(ctx, "evt")
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, _ = store.CheckAndMark(ctx, "evt")
	assert.False(t, seen)
}

func TestIdempotencyStore_Delete(t *testing.T) {
	store := NewIdempotencyStore(0)
	ctx := context.Background()

	_, _ = store.CheckAndMark(ctx, "evt")
	require.NoError(t, store.Delete(ctx, "evt"))
	seen, _ := store.CheckAndMark(ctx, "evt")
	assert.False(t, seen)
}

func TestOrderRepository_Lifecycle(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := &domain.OrderRecord{SessionID: "cs_1", CartID: "c1", Status: domain.OrderStatusPending, AmountTotalCents: 100}
	require.NoError(t, repo.Create(ctx, order))
	assert.True(t, errors.Is(repo.Create(ctx, order), apperrors.ErrConflict))

	require.NoError(t, repo.UpdateStatus(ctx, "cs_1", domain.OrderStatusPaid, 0))
	got, err := repo.GetBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, int64(100), got.AmountTotalCents)

	err = repo.UpdateStatus(ctx, "cs_1", domain.OrderStatusExpired, 0)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	got, err = repo.GetBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)

	err = repo.UpdateStatus(ctx, "cs_missing", domain.OrderStatusPaid, 0)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
