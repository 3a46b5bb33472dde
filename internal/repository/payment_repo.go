package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"a2g/internal/model"
	"a2g/internal/payment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository is the payment audit ledger.
type PaymentRepository interface {
	RecordFailed(ctx context.Context, p *model.Payment) error
	// Settle inserts a verified record unless one already exists for the
	// (order_id, payment_id) pair and applies the grant in the same transaction.
	// It reports whether it inserted.
	Settle(ctx context.Context, p *model.Payment, apply func(ctx context.Context, users payment.Entitlements) error) (bool, error)
	// GetVerified returns nil, nil when no verified record exists for the pair.
	GetVerified(ctx context.Context, orderID, paymentID string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Payment, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id::text, order_id, payment_id, signature, user_id, plan, amount, content_id, status, created_at`

func scanPayment(row pgx.Row, p *model.Payment) error {
	return row.Scan(
		&p.ID,
		&p.OrderID,
		&p.PaymentID,
		&p.Signature,
		&p.UserID,
		&p.Plan,
		&p.Amount,
		&p.ContentID,
		&p.Status,
		&p.CreatedAt,
	)
}

func (r *paymentRepo) RecordFailed(ctx context.Context, p *model.Payment) error {
	const q = `
        INSERT INTO payments (order_id, payment_id, signature, user_id, plan, amount, content_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'failed')
        RETURNING id::text, created_at
    `
	err := r.pool.QueryRow(ctx, q, p.OrderID, p.PaymentID, p.Signature, p.UserID, p.Plan, p.Amount, p.ContentID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("record failed payment %s/%s: %w", p.OrderID, p.PaymentID, err)
	}
	p.Status = model.PaymentStatusFailed
	return nil
}

func (r *paymentRepo) Settle(ctx context.Context, p *model.Payment, apply func(ctx context.Context, users payment.Entitlements) error) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("starting transaction for payment %s/%s: %w", p.OrderID, p.PaymentID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
        INSERT INTO payments (order_id, payment_id, signature, user_id, plan, amount, content_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'verified')
        ON CONFLICT (order_id, payment_id) WHERE status = 'verified' DO NOTHING
        RETURNING id::text, created_at
    `
	var (
		id        string
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, q, p.OrderID, p.PaymentID, p.Signature, p.UserID, p.Plan, p.Amount, p.ContentID).
		Scan(&id, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record verified payment %s/%s: %w", p.OrderID, p.PaymentID, err)
	}
	if err := apply(ctx, &userRepo{db: tx}); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing verified payment %s/%s: %w", p.OrderID, p.PaymentID, err)
	}
	p.ID, p.CreatedAt, p.Status = id, createdAt, model.PaymentStatusVerified
	return true, nil
}

func (r *paymentRepo) GetVerified(ctx context.Context, orderID, paymentID string) (*model.Payment, error) {
	q := `
        SELECT ` + paymentColumns + `
        FROM payments
        WHERE order_id = $1 AND payment_id = $2 AND status = 'verified'
    `
	var p model.Payment
	if err := scanPayment(r.pool.QueryRow(ctx, q, orderID, paymentID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch verified payment %s/%s: %w", orderID, paymentID, err)
	}
	return &p, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Payment, error) {
	q := `
        SELECT ` + paymentColumns + `
        FROM payments
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query payments for user %s: %w", userID, err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment row iteration: %w", err)
	}
	return payments, nil
}
