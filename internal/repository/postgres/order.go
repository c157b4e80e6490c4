package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/database"
	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations with files at the FS root.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory exists
	}
	return sub
}

const orderColumns = `session_id, cart_id, order_reference, status, subtotal_cents, donation_cents,
		amount_total_cents, currency, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order record.
func (r *OrderRepository) Create(ctx context.Context, o *domain.OrderRecord) (err error) {
	query := `
		INSERT INTO order_records (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateOrderRecord", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		o.SessionID,
		o.CartID,
		o.OrderReference,
		string(o.Status),
		o.SubtotalCents,
		o.DonationCents,
		o.AmountTotalCents,
		o.Currency,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "order record for session "+o.SessionID)
		}
		return fmt.Errorf("insert order record: %w", err)
	}

	return nil
}

// GetBySessionID retrieves an order record by checkout session ID.
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (_ *domain.OrderRecord, err error) {
	query := `SELECT ` + orderColumns + ` FROM order_records WHERE session_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetOrderRecord", query)
	defer func() { end(err) }()

	var (
		o      domain.OrderRecord
		status string
	)
	err = r.db.QueryRow(ctx, query, sessionID).Scan(
		&o.SessionID,
		&o.CartID,
		&o.OrderReference,
		&status,
		&o.SubtotalCents,
		&o.DonationCents,
		&o.AmountTotalCents,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", sessionID)
		}
		return nil, fmt.Errorf("scan order record: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	return &o, nil
}

// UpdateStatus changes the payment status of a record. A non-positive
// amountTotalCents keeps the stored total. A paid record only accepts paid.
func (r *OrderRepository) UpdateStatus(ctx context.Context, sessionID string, status domain.OrderStatus, amountTotalCents int64) (err error) {
	query := `
		UPDATE order_records
		SET status = $1,
		    amount_total_cents = CASE WHEN $2 > 0 THEN $2 ELSE amount_total_cents END,
		    updated_at = $3
		WHERE session_id = $4
		  AND (status <> 'paid' OR $1 = 'paid')`

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, string(status), amountTotalCents, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status FROM order_records WHERE session_id = $1`, sessionID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("order", sessionID)
	}
	if err != nil {
		return fmt.Errorf("read order status: %w", err)
	}
	return apperrors.Wrap(apperrors.ErrConflict, "order record "+sessionID+" is already "+current)
}

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
