package dto

import "time"

type ItemResponseDTO struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind" enum:"note,test"`
	Title            string    `json:"title"`
	Subject          string    `json:"subject"`
	IsPremium        bool      `json:"is_premium"`
	Price            *int64    `json:"price,omitempty" doc:"Price in minor units"`
	TimeLimitSeconds int       `json:"time_limit_seconds,omitempty"`
	Locked           bool      `json:"locked"`
	CreatedAt        time.Time `json:"created_at"`
}

type ItemListResponseDTO struct {
	Items []ItemResponseDTO `json:"items"`
}

type AccessResponseDTO struct {
	ItemID    string `json:"item_id"`
	HasAccess bool   `json:"has_access"`
	Reason    string `json:"reason,omitempty" doc:"upgrade_required when access is denied"`
}

// SignedURLResponseDTO is a short-lived download link for a note file.
type SignedURLResponseDTO struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
