package postgres

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/database"
	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

var orderColumnNames = []string{
	"session_id", "cart_id", "order_reference", "status", "subtotal_cents", "donation_cents",
	"amount_total_cents", "currency", "created_at", "updated_at",
}

func sampleOrder() *domain.OrderRecord {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.OrderRecord{
		SessionID:        "cs_test_123",
		CartID:           "cart-001",
		OrderReference:   "ULA-123456",
		Status:           domain.OrderStatusPending,
		SubtotalCents:    20000,
		DonationCents:    2000,
		AmountTotalCents: 22000,
		Currency:         "usd",
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

func TestOrderRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectExec("INSERT INTO order_records").
		WithArgs(o.SessionID, o.CartID, o.OrderReference, "pending",
			o.SubtotalCents, o.DonationCents, o.AmountTotalCents, o.Currency, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_Duplicate(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec("INSERT INTO order_records").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err = repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestOrderRepository_GetBySessionID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	o := sampleOrder()

	mock.ExpectQuery("SELECT (.+) FROM order_records WHERE session_id").
		WithArgs(o.SessionID).
		WillReturnRows(pgxmock.NewRows(orderColumnNames).AddRow(
			o.SessionID, o.CartID, o.OrderReference, "paid", o.SubtotalCents, o.DonationCents,
			o.AmountTotalCents, o.Currency, o.CreatedAt, o.UpdatedAt,
		))

	got, err := repo.GetBySessionID(context.Background(), o.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, o.CartID, got.CartID)
	assert.Equal(t, int64(22000), got.AmountTotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetBySessionID_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM order_records").
		WithArgs("cs_missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetBySessionID(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE order_records").
		WithArgs("paid", int64(21600), pgxmock.AnyArg(), "cs_test_123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "cs_test_123", domain.OrderStatusPaid, 21600))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE order_records").
		WithArgs("expired", int64(0), pgxmock.AnyArg(), "cs_gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT status FROM order_records").
		WithArgs("cs_gone").
		WillReturnError(pgx.ErrNoRows)

	err = repo.UpdateStatus(context.Background(), "cs_gone", domain.OrderStatusExpired, 0)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_KeepsPaid(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectExec(`(?s)UPDATE order_records.+AND \(status <> 'paid' OR \$1 = 'paid'\)`).
		WithArgs("expired", int64(0), pgxmock.AnyArg(), "cs_paid").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT status FROM order_records").
		WithArgs("cs_paid").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("paid"))

	err = repo.UpdateStatus(context.Background(), "cs_paid", domain.OrderStatusExpired, 0)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_ContainsOrderTable(t *testing.T) {
	data, err := fs.ReadFile(Migrations(), "001_create_order_records.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS order_records")
}
