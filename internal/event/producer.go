package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/kafka"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/logger"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/cart"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated        = pkgkafka.Topic("cart", "updated")
	TopicCartCleared        = pkgkafka.Topic("cart", "cleared")
	TopicCheckoutStarted    = pkgkafka.Topic("checkout", "started")
	TopicOrderConfirmed     = pkgkafka.Topic("order", "confirmed")
	TopicOrderPaymentFailed = pkgkafka.Topic("order", "payment_failed")
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID    string         `json:"cart_id"`
	Op        string         `json:"op"`
	ProductID string         `json:"product_id,omitempty"`
	Lines     []CartLineData `json:"lines"`
	ItemCount int            `json:"item_count"`
	Subtotal  int64          `json:"subtotal_cents"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price_cents"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
}

// CheckoutStartedData is the payload for a checkout.started event.
type CheckoutStartedData struct {
	CartID        string `json:"cart_id"`
	SessionID     string `json:"session_id"`
	SubtotalCents int64  `json:"subtotal_cents"`
	DonationCents int64  `json:"donation_cents"`
}

// OrderConfirmedData is the payload for an order.confirmed event.
type OrderConfirmedData struct {
	SessionID        string `json:"session_id"`
	CartID           string `json:"cart_id"`
	OrderReference   string `json:"order_reference"`
	AmountTotalCents int64  `json:"amount_total_cents"`
	DonationCents    int64  `json:"donation_cents"`
	Currency         string `json:"currency"`
}

// OrderPaymentFailedData is the payload for an order.payment_failed event.
type OrderPaymentFailedData struct {
	SessionID       string `json:"session_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	CartID          string `json:"cart_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events. A Producer without a
// publisher drops every event, which is how events are disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// Enabled reports whether events are delivered anywhere.
func (p *Producer) Enabled() bool {
	return p != nil && p.publisher != nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if !p.Enabled() {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, op cart.Op, productID string, c *domain.Cart) error {
	lines := make([]CartLineData, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = CartLineData{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: domain.ToMinorUnits(l.UnitPrice),
			Quantity:  l.Quantity,
		}
	}

	data := CartUpdatedData{
		CartID:    c.ID,
		Op:        string(op),
		ProductID: productID,
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Subtotal:  domain.ToMinorUnits(c.Subtotal()),
	}
	return p.publish(ctx, TopicCartUpdated, c.ID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cartID string) error {
	return p.publish(ctx, TopicCartCleared, cartID, AggregateTypeCart, CartClearedData{CartID: cartID})
}

// PublishCheckoutStarted publishes a checkout.started event.
func (p *Producer) PublishCheckoutStarted(ctx context.Context, data CheckoutStartedData) error {
	return p.publish(ctx, TopicCheckoutStarted, data.SessionID, AggregateTypeOrder, data)
}

// PublishOrderConfirmed publishes an order.confirmed event.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, o *domain.OrderRecord) error {
	data := OrderConfirmedData{
		SessionID:        o.SessionID,
		CartID:           o.CartID,
		OrderReference:   o.OrderReference,
		AmountTotalCents: o.AmountTotalCents,
		DonationCents:    o.DonationCents,
		Currency:         o.Currency,
	}
	return p.publish(ctx, TopicOrderConfirmed, o.SessionID, AggregateTypeOrder, data)
}

// PublishOrderPaymentFailed publishes an order.payment_failed event.
func (p *Producer) PublishOrderPaymentFailed(ctx context.Context, data OrderPaymentFailedData) error {
	aggregateID := data.SessionID
	if aggregateID == "" {
		aggregateID = data.PaymentIntentID
	}
	return p.publish(ctx, TopicOrderPaymentFailed, aggregateID, AggregateTypeOrder, data)
}

// CartObserver returns a cart observer that publishes cart events. Publish
// failures are logged and never reach the cart.
func (p *Producer) CartObserver() cart.Observer {
	return func(ctx context.Context, change cart.Change) {
		var err error
		if change.Op == cart.OpClear {
			err = p.PublishCartCleared(ctx, change.Cart.ID)
		} else {
			err = p.PublishCartUpdated(ctx, change.Op, change.ProductID, &change.Cart)
		}
		if err != nil {
			p.logger.ErrorContext(ctx, "failed to publish cart event",
				slog.String("cart_id", change.Cart.ID),
				slog.String("op", string(change.Op)),
				slog.String("error", err.Error()),
			)
		}
	}
}
