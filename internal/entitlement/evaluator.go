// Package entitlement decides whether a user may open a premium item.
//
// Decisions depend on wall-clock time, so they must be evaluated on every access
// check and never cached across requests.
package entitlement

import (
	"time"

	"a2g/internal/model"
)

// PlanActive reports whether the user holds blanket premium access at now.
// A PremiumUntil equal to now is already expired.
func PlanActive(user *model.User, now time.Time) bool {
	if user == nil {
		return false
	}
	if user.IsLifetime {
		return true
	}
	return user.PremiumUntil != nil && user.PremiumUntil.After(now)
}

// HasAccess reports whether user may open item at now.
func HasAccess(user *model.User, item *model.Item, now time.Time) bool {
	if item == nil {
		return false
	}
	if !item.IsPremium {
		return true
	}
	if PlanActive(user, now) {
		return true
	}
	return user != nil && user.HasGrant(item.ID)
}
