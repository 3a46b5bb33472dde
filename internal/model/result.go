package model

import "time"

type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
)

type CompletionType string

const (
	CompletionManual  CompletionType = "manual"
	CompletionTimeout CompletionType = "timeout"
)

// QuestionResult is one row of the per-question breakdown.
type QuestionResult struct {
	QuestionID    string  `json:"question_id"`
	Topic         string  `json:"topic"`
	GivenAnswer   *int    `json:"given_answer"`
	CorrectAnswer int     `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
	Outcome       Outcome `json:"outcome"`
}

// ResultReport is derived from a completed session and never mutated afterwards.
type ResultReport struct {
	Score          float64          `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	CorrectCount   int              `json:"correct_count"`
	IncorrectCount int              `json:"incorrect_count"`
	SkippedCount   int              `json:"skipped_count"`
	Percentage     int              `json:"percentage"`
	WeakTopics     []string         `json:"weak_topics"`
	Breakdown      []QuestionResult `json:"breakdown"`
}

// QuizResult is a persisted report for one session.
type QuizResult struct {
	ID             string         `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	UserID         string         `db:"user_id" json:"user_id"`
	TestID         string         `db:"test_id" json:"test_id"`
	CompletionType CompletionType `db:"completion_type" json:"completion_type"`
	Report         ResultReport   `db:"report" json:"report"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	CompletedAt    time.Time      `db:"completed_at" json:"completed_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
