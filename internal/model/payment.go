package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Payment is the audit record of a gateway callback. Status is written once.
type Payment struct {
	ID        string        `db:"id" json:"id"`
	OrderID   string        `db:"order_id" json:"order_id"`
	PaymentID string        `db:"payment_id" json:"payment_id"`
	Signature string        `db:"signature" json:"-"`
	UserID    string        `db:"user_id" json:"user_id"`
	Plan      string        `db:"plan" json:"plan"`
	Amount    int64         `db:"amount" json:"amount"`
	ContentID *string       `db:"content_id" json:"content_id,omitempty"`
	Status    PaymentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
