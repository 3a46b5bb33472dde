package model

import "time"

type ItemKind string

const (
	ItemKindNote ItemKind = "note"
	ItemKindTest ItemKind = "test"
)

// Item is a unit of content in the library: a note or a test.
type Item struct {
	ID        string   `db:"id" json:"id"`
	Kind      ItemKind `db:"kind" json:"kind"`
	Title     string   `db:"title" json:"title"`
	Subject   string   `db:"subject" json:"subject"`
	IsPremium bool     `db:"is_premium" json:"is_premium"`
	// Price in minor units; meaningless when IsPremium is false.
	Price *int64 `db:"price" json:"price,omitempty"`

	// Notes only
	StoragePath string `db:"storage_path" json:"-"`

	// Tests only
	QuestionSetID    string `db:"question_set_id" json:"question_set_id,omitempty"`
	TimeLimitSeconds int    `db:"time_limit_seconds" json:"time_limit_seconds,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TimeLimit returns the test duration, zero when untimed.
func (i *Item) TimeLimit() time.Duration {
	return time.Duration(i.TimeLimitSeconds) * time.Second
}
