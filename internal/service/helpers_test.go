package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	pkgkafka "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/kafka"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/catalog"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/memory"
)

// --- Mock Provider ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "test" }

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req *provider.SessionRequest) (*provider.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Session), args.Error(1)
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.SessionDetails, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SessionDetails), args.Error(1)
}

// --- Mock SessionCreator ---

type mockSessionCreator struct {
	mock.Mock
}

func (m *mockSessionCreator) CreateSession(ctx context.Context, input *CreateSessionInput) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, evt *pkgkafka.Event) error {
	args := m.Called(ctx, topic, evt)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func disabledProducer() *event.Producer {
	return event.NewProducer(nil, newTestLogger())
}

// testCatalog has two products whose prices give the 200/20/16/216 scenario
// for one of the first and two of the second.
func testCatalog() *catalog.Catalog {
	return catalog.New([]domain.Product{
		{ID: "painting", Name: "Abstract Harmony", Price: decimal.NewFromInt(100), Image: "/images/painting.jpg", Category: "Paintings"},
		{ID: "vase", Name: "Ceramic Vase", Price: decimal.NewFromInt(50), Image: "/images/vase.jpg", Category: "Ceramics"},
		{ID: "bowl", Name: "Ceramic Bowl", Price: decimal.RequireFromString("34.99"), Image: "/images/bowl.jpg", Category: "Ceramics"},
	}, catalog.SeedPlans())
}

func newTestCartService() (*CartService, *memory.CartRepository) {
	repo := memory.NewCartRepository()
	return NewCartService(repo, testCatalog(), disabledProducer(), newTestLogger(), 30*time.Minute), repo
}
