package service

import (
	"context"
	"time"

	"a2g/internal/entitlement"
	"a2g/internal/model"
	"a2g/internal/repository"
)

// EntitlementSummary is what a user has paid for, as of now.
type EntitlementSummary struct {
	Plan           model.Plan `json:"plan"`
	PlanActive     bool       `json:"plan_active"`
	PremiumUntil   *time.Time `json:"premium_until,omitempty"`
	IsLifetime     bool       `json:"is_lifetime"`
	GrantedItemIDs []string   `json:"granted_item_ids"`
}

type UserService interface {
	// Ensure creates the profile on first sign-in and returns it.
	Ensure(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Entitlements(ctx context.Context, id string) (*EntitlementSummary, error)
}

type userService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo, now: time.Now}
}

func (s *userService) Ensure(ctx context.Context, u *model.User) (*model.User, error) {
	if err := s.userRepo.EnsureUser(ctx, u); err != nil {
		return nil, upstream("ensure user", err)
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, upstream("load user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) Entitlements(ctx context.Context, id string) (*EntitlementSummary, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(u, s.now()), nil
}

// Summarize reports the entitlement state of u at now.
func Summarize(u *model.User, now time.Time) *EntitlementSummary {
	grants := u.GrantedItemIDs
	if grants == nil {
		grants = []string{}
	}
	return &EntitlementSummary{
		Plan:           u.Plan,
		PlanActive:     entitlement.PlanActive(u, now),
		PremiumUntil:   u.PremiumUntil,
		IsLifetime:     u.IsLifetime,
		GrantedItemIDs: grants,
	}
}
