package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrSessionNotFound = errors.New("session not found")
	// ErrAccessDenied means the item needs an active plan or an individual grant.
	ErrAccessDenied = errors.New("upgrade_required")
	// ErrForbidden means the caller lacks the role for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream wraps failures of the database, cache, object store or queue.
	ErrUpstream = errors.New("upstream failure")
)

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
