package repository

import (
	"context"
	"fmt"

	"a2g/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type QuestionRepository interface {
	// GetQuestionSet returns the ordered questions of a set, or nil, nil when the set is empty or unknown.
	GetQuestionSet(ctx context.Context, setID string) (*model.QuestionSet, error)
}

type questionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) QuestionRepository {
	return &questionRepo{pool: pool}
}

func (r *questionRepo) GetQuestionSet(ctx context.Context, setID string) (*model.QuestionSet, error) {
	const q = `
        SELECT id, text, options, correct_option_index, explanation, topic
        FROM questions
        WHERE question_set_id = $1
        ORDER BY position
    `
	rows, err := r.pool.Query(ctx, q, setID)
	if err != nil {
		return nil, fmt.Errorf("query question set %s: %w", setID, err)
	}
	defer rows.Close()

	qs := &model.QuestionSet{ID: setID}
	for rows.Next() {
		var qn model.Question
		if err := rows.Scan(&qn.ID, &qn.Text, &qn.Options, &qn.CorrectOptionIndex, &qn.Explanation, &qn.Topic); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		qs.Questions = append(qs.Questions, qn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("question row iteration: %w", err)
	}
	if len(qs.Questions) == 0 {
		return nil, nil
	}
	return qs, nil
}
