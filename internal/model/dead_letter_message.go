package model

import "time"

// DeadLetterMessage is an event or queued callback that could not be delivered or processed.
type DeadLetterMessage struct {
	ID               string    `db:"id"`
	SubscriptionName string    `db:"subscription_name"`
	MessageID        string    `db:"message_id"`
	Payload          string    `db:"payload"`    // JSON string
	Attributes       *string   `db:"attributes"` // nullable JSON string
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
