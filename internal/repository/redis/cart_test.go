package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		ID: "cart-001",
		Lines: []domain.CartLine{
			{
				ProductID: "designer-shirt-1",
				Name:      "Geometric Pattern Silk Shirt",
				UnitPrice: decimal.RequireFromString("189.99"),
				ImageRef:  "https://img.example.com/shirt.jpg",
				Quantity:  2,
			},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestCartRepository_SaveThenLoad(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, 24*time.Hour)
	ctx := context.Background()

	cart := sampleCart()
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Load(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "designer-shirt-1", got.Lines[0].ProductID)
	assert.True(t, got.Lines[0].UnitPrice.Equal(cart.Lines[0].UnitPrice))
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.True(t, got.UpdatedAt.Equal(cart.UpdatedAt))
}

func TestCartRepository_Load_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	_, err := repo.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartRepository_Load_CorruptBlob(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	require.NoError(t, mr.Set("cart:bad", "{not json"))

	_, err := repo.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Save_SetsTTLAndKeyLayout(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, 7*24*time.Hour)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	assert.True(t, mr.Exists("cart:cart-001"))
	assert.Equal(t, 7*24*time.Hour, mr.TTL("cart:cart-001"))

	raw, err := mr.Get("cart:cart-001")
	require.NoError(t, err)
	var blob map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &blob))
	assert.Contains(t, blob, "lines")
}

func TestCartRepository_Save_ExpiresAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))
	mr.FastForward(2 * time.Hour)

	_, err := repo.Load(ctx, "cart-001")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCartRepository_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))
	require.NoError(t, repo.Delete(ctx, "cart-001"))
	assert.False(t, mr.Exists("cart:cart-001"))

	// Deleting again is not an error.
	assert.NoError(t, repo.Delete(ctx, "cart-001"))
}

func TestCartRepository_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)
	mr.Close()

	err := repo.Save(context.Background(), sampleCart())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set cart")
}
