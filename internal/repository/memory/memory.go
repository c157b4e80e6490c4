// Package memory provides in-process repositories used when Redis or
// PostgreSQL are not configured, and in tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

// CartRepository keeps cart copies in a map.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

func (r *CartRepository) Load(_ context.Context, cartID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[cartID]
	if !ok {
		return nil, apperrors.NotFound("cart", cartID)
	}
	out := c.Clone()
	return &out, nil
}

func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = cart.Clone()
	return nil
}

func (r *CartRepository) Delete(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, cartID)
	return nil
}

// IdempotencyStore remembers event IDs until their TTL passes.
type IdempotencyStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

// NewIdempotencyStore creates an in-memory store. A zero ttl keeps marks forever.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (s *IdempotencyStore) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.seen[eventID]; ok && (exp.IsZero() || now.Before(exp)) {
		return true, nil
	}
	var exp time.Time
	if s.ttl > 0 {
		exp = now.Add(s.ttl)
	}
	s.seen[eventID] = exp
	return false, nil
}

func (s *IdempotencyStore) Delete(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
	return nil
}

// OrderRepository keeps order records in a map.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.OrderRecord
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.OrderRecord)}
}

func (r *OrderRepository) Create(_ context.Context, order *domain.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.SessionID]; exists {
		return apperrors.Wrap(apperrors.ErrConflict, "order record for session "+order.SessionID)
	}
	r.orders[order.SessionID] = *order
	return nil
}

func (r *OrderRepository) GetBySessionID(_ context.Context, sessionID string) (*domain.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[sessionID]
	if !ok {
		return nil, apperrors.NotFound("order", sessionID)
	}
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, sessionID string, status domain.OrderStatus, amountTotalCents int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[sessionID]
	if !ok {
		return apperrors.NotFound("order", sessionID)
	}
	if o.IsPaid() && status != domain.OrderStatusPaid {
		return apperrors.Wrap(apperrors.ErrConflict, "order record "+sessionID+" is already paid")
	}
	o.Status = status
	if amountTotalCents > 0 {
		o.AmountTotalCents = amountTotalCents
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[sessionID] = o
	return nil
}
