package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository/memory"
)

// fakeVerifier accepts the signature "valid" and returns the configured
// event.
type fakeVerifier struct {
	event *provider.Event
}

func (f *fakeVerifier) VerifyWebhook(_ []byte, sig string) (*provider.Event, error) {
	if sig != "valid" {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	return f.event, nil
}

// failingOrders fails every write.
type failingOrders struct {
	*memory.OrderRepository
}

func (failingOrders) Create(context.Context, *domain.OrderRecord) error {
	return errors.New("connection refused")
}

// paidMeanwhile marks every record paid right before a status write, the
// way a completed event handled concurrently would.
type paidMeanwhile struct {
	*memory.OrderRepository
}

func (r paidMeanwhile) UpdateStatus(ctx context.Context, sessionID string, status domain.OrderStatus, amountTotalCents int64) error {
	if err := r.OrderRepository.UpdateStatus(ctx, sessionID, domain.OrderStatusPaid, 0); err != nil {
		return err
	}
	return r.OrderRepository.UpdateStatus(ctx, sessionID, status, amountTotalCents)
}

type webhookFixture struct {
	svc      *WebhookService
	verifier *fakeVerifier
	guard    *memory.IdempotencyStore
	orders   *memory.OrderRepository
	pub      *mockPublisher
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		verifier: &fakeVerifier{},
		guard:    memory.NewIdempotencyStore(time.Hour),
		orders:   memory.NewOrderRepository(),
		pub:      new(mockPublisher),
	}
	producer := event.NewProducer(f.pub, newTestLogger())
	f.svc = NewWebhookService(f.verifier, f.guard, f.orders, producer, newTestLogger())
	return f
}

func completedEvent(id, sessionID string) *provider.Event {
	return &provider.Event{
		ID:   id,
		Type: provider.EventCheckoutCompleted,
		Session: &provider.SessionDetails{
			ID:                sessionID,
			PaymentStatus:     provider.PaymentStatusPaid,
			AmountTotalCents:  21600,
			Currency:          "usd",
			ClientReferenceID: "cart-1",
			Metadata: map[string]string{
				MetadataCartID:         "cart-1",
				MetadataOrderReference: "ULA-555555",
				MetadataSubtotalCents:  "20000",
				MetadataDonationAmount: "20.00",
			},
		},
	}
}

func TestWebhook_NotConfigured(t *testing.T) {
	svc := NewWebhookService(nil, memory.NewIdempotencyStore(time.Hour), memory.NewOrderRepository(), disabledProducer(), newTestLogger())

	err := svc.Process(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = completedEvent("evt_1", "cs_1")

	err := f.svc.Process(context.Background(), []byte(`{}`), "t=1,v1=forged")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrWebhookVerification))

	_, err = f.orders.GetBySessionID(context.Background(), "cs_1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_CompletedCreatesPaidRecord(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = completedEvent("evt_1", "cs_1")
	f.pub.On("Publish", mock.Anything, event.TopicOrderConfirmed, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, record.Status)
	assert.Equal(t, "cart-1", record.CartID)
	assert.Equal(t, "ULA-555555", record.OrderReference)
	assert.Equal(t, int64(20000), record.SubtotalCents)
	assert.Equal(t, int64(2000), record.DonationCents)
	assert.Equal(t, int64(21600), record.AmountTotalCents)
	f.pub.AssertExpectations(t)
}

func TestWebhook_CompletedPromotesPendingRecord(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.orders.Create(context.Background(), &domain.OrderRecord{
		SessionID:      "cs_1",
		CartID:         "cart-1",
		OrderReference: "ULA-111111",
		Status:         domain.OrderStatusPending,
	}))
	f.verifier.event = completedEvent("evt_1", "cs_1")
	f.pub.On("Publish", mock.Anything, event.TopicOrderConfirmed, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, record.IsPaid())
	assert.Equal(t, "ULA-111111", record.OrderReference)
	assert.Equal(t, int64(21600), record.AmountTotalCents)
}

func TestWebhook_DuplicateEventSkipped(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = completedEvent("evt_1", "cs_1")
	f.pub.On("Publish", mock.Anything, event.TopicOrderConfirmed, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))
	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	f.pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestWebhook_UnpaidCompletionLeavesRecord(t *testing.T) {
	f := newWebhookFixture(t)
	evt := completedEvent("evt_1", "cs_1")
	evt.Session.PaymentStatus = provider.PaymentStatusUnpaid
	f.verifier.event = evt

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	_, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_HandlerFailureReleasesMark(t *testing.T) {
	guard := memory.NewIdempotencyStore(time.Hour)
	verifier := &fakeVerifier{event: completedEvent("evt_1", "cs_1")}
	svc := NewWebhookService(verifier, guard, failingOrders{memory.NewOrderRepository()}, disabledProducer(), newTestLogger())

	err := svc.Process(context.Background(), []byte(`{}`), "valid")
	require.Error(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "a failed event must be retryable")
}

func TestWebhook_AsyncPaymentFailed(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.orders.Create(context.Background(), &domain.OrderRecord{SessionID: "cs_1", CartID: "cart-1", Status: domain.OrderStatusPending}))
	f.verifier.event = &provider.Event{
		ID:      "evt_2",
		Type:    provider.EventCheckoutAsyncPaymentFailed,
		Session: &provider.SessionDetails{ID: "cs_1", ClientReferenceID: "cart-1"},
	}
	f.pub.On("Publish", mock.Anything, event.TopicOrderPaymentFailed, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, record.Status)
	f.pub.AssertExpectations(t)
}

func TestWebhook_ExpiredSession(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.orders.Create(context.Background(), &domain.OrderRecord{SessionID: "cs_1", Status: domain.OrderStatusPending}))
	f.verifier.event = &provider.Event{
		ID:      "evt_3",
		Type:    provider.EventCheckoutExpired,
		Session: &provider.SessionDetails{ID: "cs_1"},
	}

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, record.Status)
}

func TestWebhook_ExpiredAfterPaymentKeepsPaid(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.orders.Create(context.Background(), &domain.OrderRecord{SessionID: "cs_1", Status: domain.OrderStatusPaid}))
	f.verifier.event = &provider.Event{
		ID:      "evt_late",
		Type:    provider.EventCheckoutExpired,
		Session: &provider.SessionDetails{ID: "cs_1"},
	}

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := f.orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, record.Status)
}

func TestWebhook_FailedRacingCompletionKeepsPaid(t *testing.T) {
	orders := paidMeanwhile{memory.NewOrderRepository()}
	require.NoError(t, orders.Create(context.Background(), &domain.OrderRecord{SessionID: "cs_1", CartID: "cart-1", Status: domain.OrderStatusPending}))
	verifier := &fakeVerifier{event: &provider.Event{
		ID:      "evt_race",
		Type:    provider.EventCheckoutAsyncPaymentFailed,
		Session: &provider.SessionDetails{ID: "cs_1"},
	}}
	pub := new(mockPublisher)
	svc := NewWebhookService(verifier, memory.NewIdempotencyStore(time.Hour), orders, event.NewProducer(pub, newTestLogger()), newTestLogger())

	require.NoError(t, svc.Process(context.Background(), []byte(`{}`), "valid"))

	record, err := orders.GetBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, record.Status)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_ExpiredUnknownSessionIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = &provider.Event{
		ID:      "evt_4",
		Type:    provider.EventCheckoutExpired,
		Session: &provider.SessionDetails{ID: "cs_never_seen"},
	}

	assert.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))
}

func TestWebhook_PaymentIntentFailedPublishes(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = &provider.Event{
		ID:              "evt_5",
		Type:            provider.EventPaymentIntentFailed,
		PaymentIntentID: "pi_1",
		FailureMessage:  "Your card was declined.",
	}
	f.pub.On("Publish", mock.Anything, event.TopicOrderPaymentFailed, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))
	f.pub.AssertExpectations(t)
}

func TestWebhook_UnhandledTypeAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = &provider.Event{ID: "evt_6", Type: "customer.created"}

	assert.NoError(t, f.svc.Process(context.Background(), []byte(`{}`), "valid"))
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_CompletedWithoutSession(t *testing.T) {
	f := newWebhookFixture(t)
	f.verifier.event = &provider.Event{ID: "evt_7", Type: provider.EventCheckoutCompleted}

	err := f.svc.Process(context.Background(), []byte(`{}`), "valid")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
