package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"a2g/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by writes that target a row that does not exist.
var ErrNotFound = errors.New("not_found")

type UserRepository interface {
	// EnsureUser creates the profile on first sign-in and refreshes identity fields afterwards.
	// Entitlement columns are never touched.
	EnsureUser(ctx context.Context, u *model.User) error
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SetProPlan(ctx context.Context, userID string, until time.Time) error
	// AddGrantedItem unions itemID into the user's grants; existing grants are kept.
	AddGrantedItem(ctx context.Context, userID, itemID string) error
	SetLifetime(ctx context.Context, userID string, lifetime bool) error
	// SetPremiumUntil overrides the expiry. A nil until clears the plan.
	SetPremiumUntil(ctx context.Context, userID string, until *time.Time) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type userRepo struct {
	db querier
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{db: pool}
}

const userColumns = `user_id, name, email, email_verified, role, plan, premium_until, is_lifetime, granted_item_ids, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.EmailVerified,
		&u.Role,
		&u.Plan,
		&u.PremiumUntil,
		&u.IsLifetime,
		&u.GrantedItemIDs,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (r *userRepo) EnsureUser(ctx context.Context, u *model.User) error {
	const q = `
        INSERT INTO users (user_id, name, email, email_verified)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET name = EXCLUDED.name,
            email = EXCLUDED.email,
            email_verified = EXCLUDED.email_verified,
            updated_at = NOW()
        RETURNING ` + userColumns
	if err := scanUser(r.db.QueryRow(ctx, q, u.UserID, u.Name, u.Email, u.EmailVerified), u); err != nil {
		return fmt.Errorf("ensure user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	var u model.User
	if err := scanUser(r.db.QueryRow(ctx, q, id), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) SetProPlan(ctx context.Context, userID string, until time.Time) error {
	const q = `
        UPDATE users
        SET plan = 'pro', premium_until = $2, updated_at = NOW()
        WHERE user_id = $1
    `
	return r.execOne(ctx, "set pro plan", userID, q, userID, until)
}

func (r *userRepo) AddGrantedItem(ctx context.Context, userID, itemID string) error {
	const q = `
        UPDATE users
        SET granted_item_ids = CASE
                WHEN $2 = ANY(granted_item_ids) THEN granted_item_ids
                ELSE array_append(granted_item_ids, $2)
            END,
            updated_at = NOW()
        WHERE user_id = $1
    `
	return r.execOne(ctx, "grant item", userID, q, userID, itemID)
}

func (r *userRepo) SetLifetime(ctx context.Context, userID string, lifetime bool) error {
	const q = `UPDATE users SET is_lifetime = $2, updated_at = NOW() WHERE user_id = $1`
	return r.execOne(ctx, "set lifetime", userID, q, userID, lifetime)
}

func (r *userRepo) SetPremiumUntil(ctx context.Context, userID string, until *time.Time) error {
	const q = `
        UPDATE users
        SET premium_until = $2,
            plan = CASE WHEN $2::timestamptz IS NULL THEN 'none' ELSE 'pro' END,
            updated_at = NOW()
        WHERE user_id = $1
    `
	return r.execOne(ctx, "set premium expiry", userID, q, userID, until)
}

func (r *userRepo) execOne(ctx context.Context, op, userID, q string, args ...any) error {
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s for user %s: %w", op, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s for user %s: %w", op, userID, ErrNotFound)
	}
	return nil
}
