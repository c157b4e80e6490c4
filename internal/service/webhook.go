package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/event"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/provider"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/repository"
)

// WebhookService verifies and applies payment processor notifications.
type WebhookService struct {
	verifier provider.WebhookVerifier
	guard    repository.IdempotencyStore
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewWebhookService creates a new webhook service. A nil verifier rejects
// every webhook as not configured.
func NewWebhookService(
	verifier provider.WebhookVerifier,
	guard repository.IdempotencyStore,
	orders repository.OrderRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		verifier: verifier,
		guard:    guard,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// Process verifies the payload signature, skips events already handled and
// applies the rest. A nil error means the processor should get a
// {"received": true} acknowledgement.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signatureHeader string) error {
	if s.verifier == nil {
		return apperrors.ServiceUnavailable("webhook endpoint is not configured")
	}

	evt, err := s.verifier.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		webhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		s.logger.WarnContext(ctx, "webhook signature verification failed",
			slog.String("error", err.Error()),
		)
		return apperrors.WebhookVerification(err.Error())
	}

	alreadyProcessed, err := s.guard.CheckAndMark(ctx, evt.ID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("check idempotency: %w", err))
	}
	if alreadyProcessed {
		webhookEventsTotal.WithLabelValues(evt.Type, "duplicate").Inc()
		s.logger.InfoContext(ctx, "duplicate webhook event skipped",
			slog.String("event_id", evt.ID),
			slog.String("type", evt.Type),
		)
		return nil
	}

	if err := s.HandleEvent(ctx, evt); err != nil {
		if delErr := s.guard.Delete(ctx, evt.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to release idempotency mark",
				slog.String("event_id", evt.ID),
				slog.String("error", delErr.Error()),
			)
		}
		webhookEventsTotal.WithLabelValues(evt.Type, "failed").Inc()
		return err
	}

	webhookEventsTotal.WithLabelValues(evt.Type, "processed").Inc()
	return nil
}

// HandleEvent applies a verified event to the order-record store.
func (s *WebhookService) HandleEvent(ctx context.Context, evt *provider.Event) error {
	switch evt.Type {
	case provider.EventCheckoutCompleted, provider.EventCheckoutAsyncPaymentOK:
		if evt.Session == nil {
			return apperrors.InvalidInput("checkout session data required")
		}
		if !evt.Session.IsPaid() {
			s.logger.InfoContext(ctx, "checkout completed, payment pending",
				slog.String("session_id", evt.Session.ID),
				slog.String("payment_status", evt.Session.PaymentStatus),
			)
			return nil
		}
		return s.confirmOrder(ctx, evt.Session)

	case provider.EventCheckoutAsyncPaymentFailed:
		if evt.Session == nil {
			return apperrors.InvalidInput("checkout session data required")
		}
		alreadyPaid, err := s.setStatus(ctx, evt.Session.ID, domain.OrderStatusFailed)
		if err != nil || alreadyPaid {
			return err
		}
		s.publishPaymentFailed(ctx, event.OrderPaymentFailedData{
			SessionID: evt.Session.ID,
			CartID:    cartIDFromSession(evt.Session),
			Reason:    "async payment failed",
		})
		return nil

	case provider.EventCheckoutExpired:
		if evt.Session == nil {
			return apperrors.InvalidInput("checkout session data required")
		}
		_, err := s.setStatus(ctx, evt.Session.ID, domain.OrderStatusExpired)
		return err

	case provider.EventPaymentIntentFailed:
		s.logger.WarnContext(ctx, "payment failed",
			slog.String("payment_intent_id", evt.PaymentIntentID),
			slog.String("reason", evt.FailureMessage),
		)
		s.publishPaymentFailed(ctx, event.OrderPaymentFailedData{
			PaymentIntentID: evt.PaymentIntentID,
			Reason:          evt.FailureMessage,
		})
		return nil

	default:
		s.logger.DebugContext(ctx, "ignoring webhook event",
			slog.String("event_id", evt.ID),
			slog.String("type", evt.Type),
		)
		return nil
	}
}

func (s *WebhookService) confirmOrder(ctx context.Context, sess *provider.SessionDetails) error {
	record, err := s.orders.GetBySessionID(ctx, sess.ID)
	switch {
	case err == nil:
		if err := s.orders.UpdateStatus(ctx, sess.ID, domain.OrderStatusPaid, sess.AmountTotalCents); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		record.Status = domain.OrderStatusPaid
		if sess.AmountTotalCents > 0 {
			record.AmountTotalCents = sess.AmountTotalCents
		}
	case errors.Is(err, apperrors.ErrNotFound):
		record = recordFromSession(sess, cartIDFromSession(sess), domain.OrderStatusPaid)
		if err := s.orders.Create(ctx, record); err != nil {
			if !errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("create order record: %w", err)
			}
			// Created concurrently by the success route.
			if err := s.orders.UpdateStatus(ctx, sess.ID, domain.OrderStatusPaid, sess.AmountTotalCents); err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
		}
	default:
		return fmt.Errorf("get order record: %w", err)
	}

	s.logger.InfoContext(ctx, "order confirmed",
		slog.String("session_id", sess.ID),
		slog.String("cart_id", record.CartID),
		slog.Int64("amount_total_cents", record.AmountTotalCents),
	)

	if err := s.producer.PublishOrderConfirmed(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.confirmed event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// setStatus updates a record; sessions this service never saw are logged and
// skipped. The store refuses to move a paid record off paid; the result
// reports that case.
func (s *WebhookService) setStatus(ctx context.Context, sessionID string, status domain.OrderStatus) (bool, error) {
	err := s.orders.UpdateStatus(ctx, sessionID, status, 0)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, apperrors.ErrConflict):
		s.logger.WarnContext(ctx, "ignoring status change for paid order",
			slog.String("session_id", sessionID),
			slog.String("status", string(status)),
		)
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		s.logger.InfoContext(ctx, "webhook for unknown session",
			slog.String("session_id", sessionID),
			slog.String("status", string(status)),
		)
		return false, nil
	default:
		return false, fmt.Errorf("update order status: %w", err)
	}
}

func (s *WebhookService) publishPaymentFailed(ctx context.Context, data event.OrderPaymentFailedData) {
	if err := s.producer.PublishOrderPaymentFailed(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.payment_failed event",
			slog.String("session_id", data.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

func cartIDFromSession(sess *provider.SessionDetails) string {
	if id := sess.Metadata[MetadataCartID]; id != "" {
		return id
	}
	return sess.ClientReferenceID
}

// recordFromSession rebuilds an order record from the processor's session
// and the metadata attached when it was created.
func recordFromSession(sess *provider.SessionDetails, cartID string, status domain.OrderStatus) *domain.OrderRecord {
	now := time.Now().UTC()
	record := &domain.OrderRecord{
		SessionID:        sess.ID,
		CartID:           cartID,
		OrderReference:   sess.Metadata[MetadataOrderReference],
		Status:           status,
		AmountTotalCents: sess.AmountTotalCents,
		Currency:         sess.Currency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if record.OrderReference == "" {
		record.OrderReference = domain.NewOrderReference()
	}
	if record.Currency == "" {
		record.Currency = CheckoutCurrency
	}
	if v, err := strconv.ParseInt(sess.Metadata[MetadataSubtotalCents], 10, 64); err == nil {
		record.SubtotalCents = v
	}
	if v, err := decimal.NewFromString(sess.Metadata[MetadataDonationAmount]); err == nil {
		record.DonationCents = domain.ToMinorUnits(v)
	}
	return record
}
