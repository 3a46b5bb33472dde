package dto

import "time"

type UserCreateDTO struct {
	Name string `json:"name,omitempty" maxLength:"200" doc:"Display name; defaults to the name in the identity token"`
}

type EntitlementsDTO struct {
	Plan           string     `json:"plan" enum:"none,pro"`
	PlanActive     bool       `json:"plan_active"`
	PremiumUntil   *time.Time `json:"premium_until,omitempty"`
	IsLifetime     bool       `json:"is_lifetime"`
	GrantedItemIDs []string   `json:"granted_item_ids"`
}

type UserResponseDTO struct {
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	Role          string          `json:"role"`
	Entitlements  EntitlementsDTO `json:"entitlements"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EntitlementOverrideDTO is an admin change to a user's entitlements.
// Grants are only ever added.
type EntitlementOverrideDTO struct {
	Lifetime     *bool      `json:"lifetime,omitempty" doc:"Set or clear lifetime access"`
	PremiumUntil *time.Time `json:"premium_until,omitempty" doc:"Set the Pro plan expiry"`
	ClearPremium bool       `json:"clear_premium,omitempty" doc:"Remove the Pro plan expiry"`
	GrantItemIDs []string   `json:"grant_item_ids,omitempty" validate:"dive,required" doc:"Items to unlock individually"`
}
