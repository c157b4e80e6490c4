package cart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/memory"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Load(ctx context.Context, cartID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func line(id string, price string, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID: id,
		Name:      "Product " + id,
		UnitPrice: decimal.RequireFromString(price),
		ImageRef:  "/images/" + id + ".jpg",
		Quantity:  qty,
	}
}

func newMemoryStore(t *testing.T) (*Store, *memory.CartRepository) {
	t.Helper()
	repo := memory.NewCartRepository()
	return NewStore(context.Background(), "cart-1", repo, newTestLogger()), repo
}

// --- AddToCart ---

func TestAddToCart_AppendsNewLine(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "50", 2)))

	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(s.Subtotal()))
}

func TestAddToCart_MergesQuantities(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "50", 2)))
	require.NoError(t, s.AddToCart(ctx, line("art-1", "50", 3)))

	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
}

func TestAddToCart_PreservesInsertionOrder(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.AddToCart(ctx, line(id, "1", 1)))
	}
	require.NoError(t, s.AddToCart(ctx, line("a", "1", 1)))

	snap := s.Snapshot()
	ids := []string{snap.Lines[0].ProductID, snap.Lines[1].ProductID, snap.Lines[2].ProductID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestAddToCart_Validation(t *testing.T) {
	tests := []struct {
		name string
		line domain.CartLine
	}{
		{"zero quantity", line("art-1", "10", 0)},
		{"negative quantity", line("art-1", "10", -2)},
		{"empty product id", line("", "10", 1)},
		{"negative price", line("art-1", "-1", 1)},
		{"quantity above limit", line("art-1", "10", MaxQuantityPerLine+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newMemoryStore(t)
			err := s.AddToCart(context.Background(), tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Empty(t, s.Snapshot().Lines)
		})
	}
}

func TestAddToCart_CombinedQuantityLimit(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 60)))
	err := s.AddToCart(ctx, line("art-1", "10", 41))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, 60, s.Snapshot().Lines[0].Quantity)
}

func TestAddToCart_DistinctLineLimit(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	for i := 0; i < MaxLinesPerCart; i++ {
		require.NoError(t, s.AddToCart(ctx, line(string(rune('A'+i%26))+string(rune('a'+i/26)), "1", 1)))
	}
	err := s.AddToCart(ctx, line("one-too-many", "1", 1))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Len(t, s.Snapshot().Lines, MaxLinesPerCart)
}

// --- RemoveFromCart / UpdateQuantity ---

func TestRemoveFromCart(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))
	require.NoError(t, s.AddToCart(ctx, line("art-2", "20", 1)))

	s.RemoveFromCart(ctx, "art-1")
	s.RemoveFromCart(ctx, "missing")

	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "art-2", snap.Lines[0].ProductID)
}

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))
	require.NoError(t, s.UpdateQuantity(ctx, "art-1", 4))

	assert.Equal(t, 4, s.Snapshot().Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(s.Subtotal()))
}

func TestUpdateQuantity_ZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	a, _ := newMemoryStore(t)
	b, _ := newMemoryStore(t)

	for _, s := range []*Store{a, b} {
		require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 2)))
		require.NoError(t, s.AddToCart(ctx, line("art-2", "5", 1)))
	}

	require.NoError(t, a.UpdateQuantity(ctx, "art-1", 0))
	b.RemoveFromCart(ctx, "art-1")

	assert.Equal(t, b.Snapshot().Lines, a.Snapshot().Lines)
}

func TestUpdateQuantity_NegativeOnAbsentIsNoop(t *testing.T) {
	s, _ := newMemoryStore(t)
	assert.NoError(t, s.UpdateQuantity(context.Background(), "missing", -1))
}

func TestUpdateQuantity_AbsentProduct(t *testing.T) {
	s, _ := newMemoryStore(t)
	err := s.UpdateQuantity(context.Background(), "missing", 3)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateQuantity_AboveLimit(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))

	err := s.UpdateQuantity(ctx, "art-1", MaxQuantityPerLine+1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- ClearCart / persistence ---

func TestClearCart_EmptiesMemoryAndPersistence(t *testing.T) {
	s, repo := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))
	s.ClearCart(ctx)

	assert.Empty(t, s.Snapshot().Lines)
	assert.True(t, decimal.Zero.Equal(s.Subtotal()))
	_, err := repo.Load(ctx, "cart-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPersistence_RoundTrip(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()

	first := NewStore(ctx, "cart-1", repo, newTestLogger())
	require.NoError(t, first.AddToCart(ctx, line("art-1", "100", 1)))
	require.NoError(t, first.AddToCart(ctx, line("art-2", "50", 2)))

	second := NewStore(ctx, "cart-1", repo, newTestLogger())
	assert.Equal(t, first.Snapshot().Lines, second.Snapshot().Lines)
	assert.True(t, first.Subtotal().Equal(second.Subtotal()))
	assert.False(t, second.Degraded())
}

func TestNewStore_DropsInvalidPersistedLines(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Cart{ID: "cart-1", Lines: []domain.CartLine{
		line("ok", "10", 1),
		line("zero", "10", 0),
		line("ok", "10", 3),
	}}))

	s := NewStore(ctx, "cart-1", repo, newTestLogger())
	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 1, snap.Lines[0].Quantity)
}

func TestNewStore_LoadFailureDegrades(t *testing.T) {
	repo := new(mockCartRepository)
	repo.On("Load", mock.Anything, "cart-1").Return(nil, errors.New("connection refused"))

	s := NewStore(context.Background(), "cart-1", repo, newTestLogger())

	assert.True(t, s.Degraded())
	assert.Empty(t, s.Snapshot().Lines)
	require.NoError(t, s.AddToCart(context.Background(), line("art-1", "10", 1)))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveFailure_DegradesWithoutFailingOperation(t *testing.T) {
	repo := new(mockCartRepository)
	repo.On("Load", mock.Anything, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("quota exceeded")).Once()

	s := NewStore(context.Background(), "cart-1", repo, newTestLogger())
	require.False(t, s.Degraded())

	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))
	assert.True(t, s.Degraded())

	require.NoError(t, s.AddToCart(ctx, line("art-2", "10", 1)))
	assert.Len(t, s.Snapshot().Lines, 2)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

// --- Observers ---

func TestSubscribe_ReceivesChangesInOrder(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	var ops []Op
	var subtotals []string
	unsubscribe := s.Subscribe(func(_ context.Context, c Change) {
		ops = append(ops, c.Op)
		subtotals = append(subtotals, c.Cart.Subtotal().StringFixed(2))
	})

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 1)))
	require.NoError(t, s.UpdateQuantity(ctx, "art-1", 3))
	s.RemoveFromCart(ctx, "art-1")
	s.ClearCart(ctx)

	assert.Equal(t, []Op{OpAdd, OpUpdate, OpRemove, OpClear}, ops)
	assert.Equal(t, []string{"10.00", "30.00", "0.00", "0.00"}, subtotals)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.AddToCart(ctx, line("art-2", "10", 1)))
	assert.Len(t, ops, 4)
}

func TestSubscribe_NotifiedAfterPersist(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()
	s := NewStore(ctx, "cart-1", repo, newTestLogger())

	var persistedQty int
	s.Subscribe(func(ctx context.Context, c Change) {
		persisted, err := repo.Load(ctx, "cart-1")
		if err == nil && len(persisted.Lines) > 0 {
			persistedQty = persisted.Lines[0].Quantity
		}
	})

	require.NoError(t, s.AddToCart(ctx, line("art-1", "10", 2)))
	assert.Equal(t, 2, persistedQty)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddToCart(ctx, line("art-1", "1", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Snapshot().Lines[0].Quantity)
}

// --- Scenario ---

func TestScenarioTotals(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, line("art-1", "100", 1)))
	require.NoError(t, s.AddToCart(ctx, line("art-2", "50", 2)))

	totals := s.Totals()
	assert.Equal(t, "200.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", totals.Donation.StringFixed(2))
	assert.Equal(t, "16.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "216.00", totals.EstimatedTotal.StringFixed(2))
	assert.Equal(t, 3, totals.ItemCount)
}
