// Package cart holds the per-session cart store. A Store owns the lines of one
// cart, persists every mutation and notifies its observers in mutation order.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// Cart limits.
const (
	// MaxQuantityPerLine is the largest quantity a single line may hold.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the largest number of distinct products in a cart.
	MaxLinesPerCart = 50
)

// Op names the mutation that produced a Change.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
	OpClear  Op = "clear"
)

// Change is delivered to observers after each mutation. Cart is a copy taken
// after the mutation was applied.
type Change struct {
	Op        Op
	ProductID string
	Cart      domain.Cart
}

// Observer receives changes synchronously, while the store is locked.
// Observers must not call back into the Store.
type Observer func(ctx context.Context, change Change)

type subscription struct {
	id int
	fn Observer
}

// Store is the mutable cart of a single cart session.
type Store struct {
	mu        sync.Mutex
	cart      domain.Cart
	repo      repository.CartRepository
	logger    *slog.Logger
	degraded  bool
	observers []subscription
	nextSubID int
	now       func() time.Time
}

// NewStore creates the store for cartID and hydrates it from repo. A missing
// persisted cart yields an empty cart; any other load failure yields an empty
// cart in degraded, memory-only mode.
func NewStore(ctx context.Context, cartID string, repo repository.CartRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		cart:   domain.Cart{ID: cartID, Lines: []domain.CartLine{}},
		repo:   repo,
		logger: logger.With(slog.String("cart_id", cartID)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if repo == nil {
		s.degraded = true
		return s
	}

	persisted, err := repo.Load(ctx, cartID)
	switch {
	case err == nil:
		s.cart.Lines = validLines(persisted.Lines)
		s.cart.UpdatedAt = persisted.UpdatedAt
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		s.degrade(ctx, fmt.Errorf("load cart: %w", err))
	}

	return s
}

// validLines drops persisted lines that would break the cart invariants.
func validLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// ID returns the cart session ID.
func (s *Store) ID() string {
	return s.cart.ID
}

// AddToCart merges line into the cart: an existing product has its quantity
// increased, otherwise the line is appended.
func (s *Store) AddToCart(ctx context.Context, line domain.CartLine) error {
	if line.ProductID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if line.Quantity <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}
	if line.UnitPrice.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if line.Quantity > MaxQuantityPerLine {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.cart.FindLine(line.ProductID); i >= 0 {
		newQty := s.cart.Lines[i].Quantity + line.Quantity
		if newQty > MaxQuantityPerLine {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerLine))
		}
		s.cart.Lines[i].Quantity = newQty
	} else {
		if len(s.cart.Lines) >= MaxLinesPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d products", MaxLinesPerCart))
		}
		s.cart.Lines = append(s.cart.Lines, line)
	}

	s.commit(ctx, OpAdd, line.ProductID)
	return nil
}

// RemoveFromCart deletes the line for productID. Removing an absent product is
// a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, productID)
}

func (s *Store) removeLocked(ctx context.Context, productID string) {
	i := s.cart.FindLine(productID)
	if i < 0 {
		return
	}
	s.cart.Lines = append(s.cart.Lines[:i], s.cart.Lines[i+1:]...)
	s.commit(ctx, OpRemove, productID)
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line and never fails.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, productID)
		return nil
	}
	if quantity > MaxQuantityPerLine {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	i := s.cart.FindLine(productID)
	if i < 0 {
		return apperrors.NotFound("cart line", productID)
	}
	s.cart.Lines[i].Quantity = quantity

	s.commit(ctx, OpUpdate, productID)
	return nil
}

// ClearCart removes every line and the persisted copy.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Lines = []domain.CartLine{}
	s.cart.UpdatedAt = s.now()

	if !s.degraded {
		if err := s.repo.Delete(ctx, s.cart.ID); err != nil {
			s.degrade(ctx, err)
		}
	}
	s.notify(ctx, OpClear, "")
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Subtotal returns the sum of line totals.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

// Totals returns subtotal, donation, tax and estimated total.
func (s *Store) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Totals()
}

// Degraded reports whether the store stopped persisting after a storage
// failure.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.observers = append(s.observers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.observers {
				if sub.id == id {
					s.observers = append(s.observers[:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// commit persists the cart and then notifies observers. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, op Op, productID string) {
	s.cart.UpdatedAt = s.now()

	if !s.degraded {
		snapshot := s.cart.Clone()
		if err := s.repo.Save(ctx, &snapshot); err != nil {
			s.degrade(ctx, err)
		}
	}
	s.notify(ctx, op, productID)
}

func (s *Store) notify(ctx context.Context, op Op, productID string) {
	if len(s.observers) == 0 {
		return
	}
	change := Change{Op: op, ProductID: productID, Cart: s.cart.Clone()}
	for _, sub := range s.observers {
		sub.fn(ctx, change)
	}
}

// degrade switches the store to memory-only mode. Caller holds s.mu or is
// the constructor.
func (s *Store) degrade(ctx context.Context, err error) {
	s.degraded = true
	s.logger.WarnContext(ctx, "cart persistence failed, continuing in memory",
		slog.String("error", apperrors.Persistence(err).Error()),
	)
}
