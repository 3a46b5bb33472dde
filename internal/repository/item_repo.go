package repository

import (
	"context"
	"errors"
	"fmt"

	"a2g/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository reads the notes and tests catalogue.
type ItemRepository interface {
	// GetItem returns nil, nil when the item does not exist.
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems returns the catalogue, optionally filtered by kind.
	ListItems(ctx context.Context, kind model.ItemKind, limit, offset int) ([]model.Item, error)
}

type itemRepo struct {
	pool *pgxpool.Pool
}

func NewItemRepo(pool *pgxpool.Pool) ItemRepository {
	return &itemRepo{pool: pool}
}

const itemColumns = `
    id, kind, title, subject, is_premium, price,
    COALESCE(storage_path, ''), COALESCE(question_set_id, ''), COALESCE(time_limit_seconds, 0),
    created_at`

func scanItem(row pgx.Row, it *model.Item) error {
	return row.Scan(
		&it.ID,
		&it.Kind,
		&it.Title,
		&it.Subject,
		&it.IsPremium,
		&it.Price,
		&it.StoragePath,
		&it.QuestionSetID,
		&it.TimeLimitSeconds,
		&it.CreatedAt,
	)
}

func (r *itemRepo) GetItem(ctx context.Context, id string) (*model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	var it model.Item
	if err := scanItem(r.pool.QueryRow(ctx, q, id), &it); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch item %s: %w", id, err)
	}
	return &it, nil
}

func (r *itemRepo) ListItems(ctx context.Context, kind model.ItemKind, limit, offset int) ([]model.Item, error) {
	q := `
        SELECT ` + itemColumns + `
        FROM items
        WHERE ($1 = '' OR kind = $1)
        ORDER BY subject, title
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, string(kind), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item row iteration: %w", err)
	}
	return items, nil
}
