package dto

import "time"

// PaymentVerifyDTO is the checkout callback forwarded by the client. The user
// is taken from the bearer token.
type PaymentVerifyDTO struct {
	OrderID   string  `json:"orderId" minLength:"1"`
	PaymentID string  `json:"paymentId" minLength:"1"`
	Signature string  `json:"signature" minLength:"1"`
	Plan      string  `json:"plan" minLength:"1" doc:"pro, single_note or single_test"`
	Amount    int64   `json:"amount" minimum:"0" doc:"Amount in minor units"`
	ContentID *string `json:"contentId,omitempty" doc:"Item unlocked by single_* plans"`
}

// PaymentWebhookDTO is the server-to-server notification from the gateway.
type PaymentWebhookDTO struct {
	PaymentVerifyDTO
	UserID string `json:"userId" minLength:"1"`
}

type PaymentVerifyResponseDTO struct {
	Status       string     `json:"status" enum:"verified"`
	Duplicate    bool       `json:"duplicate"`
	Grant        string     `json:"grant" enum:"pro,single_item"`
	ContentID    string     `json:"content_id,omitempty"`
	PremiumUntil *time.Time `json:"premium_until,omitempty"`
}

type PaymentWebhookResponseDTO struct {
	Queued    bool  `json:"queued"`
	MessageID int64 `json:"message_id"`
}

type PaymentRecordDTO struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Plan      string    `json:"plan"`
	Amount    int64     `json:"amount"`
	ContentID *string   `json:"content_id,omitempty"`
	Status    string    `json:"status" enum:"pending,verified,failed"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentListResponseDTO struct {
	Payments []PaymentRecordDTO `json:"payments"`
}
