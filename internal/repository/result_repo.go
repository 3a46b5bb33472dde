package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"a2g/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResultRepository interface {
	// SaveResult stores the report of a completed session. A session has at most one
	// result; when one already exists it is loaded into res and false is returned.
	SaveResult(ctx context.Context, res *model.QuizResult) (bool, error)
	// GetBySessionID returns nil, nil when the session has no stored result.
	GetBySessionID(ctx context.Context, sessionID string) (*model.QuizResult, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.QuizResult, error)
}

type resultRepo struct {
	pool *pgxpool.Pool
}

func NewResultRepo(pool *pgxpool.Pool) ResultRepository {
	return &resultRepo{pool: pool}
}

const resultColumns = `id::text, session_id, user_id, test_id, completion_type, report, started_at, completed_at, created_at`

func scanResult(row pgx.Row, res *model.QuizResult) error {
	var rawReport []byte
	if err := row.Scan(
		&res.ID,
		&res.SessionID,
		&res.UserID,
		&res.TestID,
		&res.CompletionType,
		&rawReport,
		&res.StartedAt,
		&res.CompletedAt,
		&res.CreatedAt,
	); err != nil {
		return err
	}
	if err := json.Unmarshal(rawReport, &res.Report); err != nil {
		return fmt.Errorf("unmarshal report for session %s: %w", res.SessionID, err)
	}
	return nil
}

func (r *resultRepo) SaveResult(ctx context.Context, res *model.QuizResult) (bool, error) {
	report, err := json.Marshal(res.Report)
	if err != nil {
		return false, fmt.Errorf("marshal report for session %s: %w", res.SessionID, err)
	}
	const q = `
        INSERT INTO quiz_results (session_id, user_id, test_id, completion_type, report, started_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (session_id) DO NOTHING
        RETURNING id::text, created_at
    `
	err = r.pool.QueryRow(ctx, q,
		res.SessionID,
		res.UserID,
		res.TestID,
		res.CompletionType,
		report,
		res.StartedAt,
		res.CompletedAt,
	).Scan(&res.ID, &res.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("save result for session %s: %w", res.SessionID, err)
	}

	existing, err := r.GetBySessionID(ctx, res.SessionID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("result for session %s vanished after conflict", res.SessionID)
	}
	*res = *existing
	return false, nil
}

func (r *resultRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.QuizResult, error) {
	q := `SELECT ` + resultColumns + ` FROM quiz_results WHERE session_id = $1`
	var res model.QuizResult
	if err := scanResult(r.pool.QueryRow(ctx, q, sessionID), &res); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch result for session %s: %w", sessionID, err)
	}
	return &res, nil
}

func (r *resultRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.QuizResult, error) {
	q := `
        SELECT ` + resultColumns + `
        FROM quiz_results
        WHERE user_id = $1
        ORDER BY completed_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query results for user %s: %w", userID, err)
	}
	defer rows.Close()

	results := []model.QuizResult{}
	for rows.Next() {
		var res model.QuizResult
		if err := scanResult(rows, &res); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("result row iteration: %w", err)
	}
	return results, nil
}
