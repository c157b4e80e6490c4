package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/cart"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/catalog"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// AddItemInput holds the parameters for adding a catalog product to a cart.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

// UpdateQuantityInput holds the parameters for updating a line quantity.
// Zero or less removes the line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// CartView is a cart together with its derived totals.
type CartView struct {
	ID    string            `json:"id"`
	Lines []domain.CartLine `json:"lines"`
	domain.Totals
	Degraded bool `json:"degraded,omitempty"`
}

func newCartView(s *cart.Store) *CartView {
	snap := s.Snapshot()
	return &CartView{
		ID:       snap.ID,
		Lines:    snap.Lines,
		Totals:   snap.Totals(),
		Degraded: s.Degraded(),
	}
}

type cartSession struct {
	store       *cart.Store
	lastUsed    time.Time
	unsubscribe []func()
}

func (cs *cartSession) close() {
	for _, fn := range cs.unsubscribe {
		fn()
	}
}

// CartService owns the cart store of every active cart session. A store is
// created on first use of a cart ID, hydrated from the repository, and shared
// by all requests for that ID until it has been idle for idleTimeout.
type CartService struct {
	repo        repository.CartRepository
	catalog     *catalog.Catalog
	producer    *event.Producer
	logger      *slog.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*cartSession
	now      func() time.Time
}

// MinIdleTimeout is the shortest idle timeout a cart session gets. It
// outlasts the router's request timeout, so a store held by a request is
// never evicted under it.
const MinIdleTimeout = time.Minute

// NewCartService creates a new cart service. A positive idleTimeout below
// MinIdleTimeout is raised to it; zero disables eviction.
func NewCartService(repo repository.CartRepository, cat *catalog.Catalog, producer *event.Producer, logger *slog.Logger, idleTimeout time.Duration) *CartService {
	if idleTimeout > 0 && idleTimeout < MinIdleTimeout {
		idleTimeout = MinIdleTimeout
	}
	return &CartService{
		repo:        repo,
		catalog:     cat,
		producer:    producer,
		logger:      logger,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*cartSession),
		now:         time.Now,
	}
}

// Store returns the store for cartID, creating and hydrating it on first use.
func (s *CartService) Store(ctx context.Context, cartID string) (*cart.Store, error) {
	if cartID == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}

	if store, ok := s.lookup(cartID); ok {
		return store, nil
	}

	// Hydrate outside the lock so a slow repository only delays this cart.
	store := cart.NewStore(ctx, cartID, s.repo, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[cartID]; ok {
		existing.lastUsed = s.now()
		return existing.store, nil
	}

	sess := &cartSession{store: store, lastUsed: s.now()}
	sess.unsubscribe = append(sess.unsubscribe, store.Subscribe(metricsObserver))
	if s.producer.Enabled() {
		sess.unsubscribe = append(sess.unsubscribe, store.Subscribe(s.producer.CartObserver()))
	}
	s.sessions[cartID] = sess
	cartSessionsActive.Set(float64(len(s.sessions)))

	s.logger.DebugContext(ctx, "cart session opened",
		slog.String("cart_id", cartID),
		slog.Bool("degraded", store.Degraded()),
	)
	return store, nil
}

func (s *CartService) lookup(cartID string) (*cart.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cartID]
	if !ok {
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.store, true
}

// GetCart returns the cart for cartID. An unknown ID yields an empty cart.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*CartView, error) {
	store, err := s.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return newCartView(store), nil
}

// AddItem adds a catalog product to the cart, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, cartID string, input AddItemInput) (*CartView, error) {
	product, err := s.catalog.Get(input.ProductID)
	if err != nil {
		return nil, err
	}

	store, err := s.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := store.AddToCart(ctx, product.Line(input.Quantity)); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("cart_id", cartID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)
	return newCartView(store), nil
}

// UpdateItemQuantity sets a line quantity. Zero or less removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*CartView, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	store, err := s.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateQuantity(ctx, productID, quantity); err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	return newCartView(store), nil
}

// RemoveItem removes a line. Removing an absent product is not an error.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) (*CartView, error) {
	store, err := s.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}
	store.RemoveFromCart(ctx, productID)
	return newCartView(store), nil
}

// ClearCart empties the cart and its persisted copy.
func (s *CartService) ClearCart(ctx context.Context, cartID string) (*CartView, error) {
	store, err := s.Store(ctx, cartID)
	if err != nil {
		return nil, err
	}
	store.ClearCart(ctx)

	s.logger.InfoContext(ctx, "cart cleared", slog.String("cart_id", cartID))
	return newCartView(store), nil
}

// ActiveSessions returns the number of cart sessions held in memory.
func (s *CartService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run closes idle cart sessions until ctx is canceled. The persisted copy of
// an evicted cart remains and rehydrates the next store for that ID.
func (s *CartService) Run(ctx context.Context) {
	if s.idleTimeout <= 0 {
		return
	}
	interval := s.idleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(); n > 0 {
				s.logger.Debug("evicted idle cart sessions", slog.Int("count", n))
			}
		}
	}
}

func (s *CartService) evictIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			sess.close()
			delete(s.sessions, id)
			n++
		}
	}
	cartSessionsActive.Set(float64(len(s.sessions)))
	return n
}

// Close detaches every observer and drops all sessions.
func (s *CartService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.close()
		delete(s.sessions, id)
	}
	cartSessionsActive.Set(0)
}
