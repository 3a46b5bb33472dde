package model

import (
	"slices"
	"time"
)

type Plan string

const (
	PlanNone Plan = "none"
	PlanPro  Plan = "pro"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents a user profile together with its entitlement state.
type User struct {
	UserID         string     `db:"user_id" json:"user_id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	EmailVerified  bool       `db:"email_verified" json:"email_verified"`
	Role           Role       `db:"role" json:"role"`
	Plan           Plan       `db:"plan" json:"plan"`
	PremiumUntil   *time.Time `db:"premium_until" json:"premium_until,omitempty"`
	IsLifetime     bool       `db:"is_lifetime" json:"is_lifetime"`
	GrantedItemIDs []string   `db:"granted_item_ids" json:"granted_item_ids"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HasGrant reports whether itemID was individually unlocked for the user.
func (u *User) HasGrant(itemID string) bool {
	return slices.Contains(u.GrantedItemIDs, itemID)
}

// IsAdmin reports whether the user may use admin overrides.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
