package service

import (
	"context"
	"fmt"
	"time"

	"a2g/internal/model"
	"a2g/internal/repository"

	"github.com/rs/zerolog"
)

// EntitlementOverride is a manual change to a user's access. Nil fields are
// left alone. Grants are only ever added.
type EntitlementOverride struct {
	Lifetime     *bool
	PremiumUntil *time.Time
	ClearPremium bool
	GrantItemIDs []string
}

type AdminService interface {
	ApplyOverride(ctx context.Context, actorID, userID string, o EntitlementOverride) (*model.User, error)
}

type adminService struct {
	users  repository.UserRepository
	items  repository.ItemRepository
	logger zerolog.Logger
}

func NewAdminService(users repository.UserRepository, items repository.ItemRepository, logger zerolog.Logger) AdminService {
	return &adminService{
		users:  users,
		items:  items,
		logger: logger.With().Str("service", "AdminService").Logger(),
	}
}

func (s *adminService) ApplyOverride(ctx context.Context, actorID, userID string, o EntitlementOverride) (*model.User, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, upstream("load actor", err)
	}
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	target, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, upstream("load user", err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	for _, itemID := range o.GrantItemIDs {
		item, err := s.items.GetItem(ctx, itemID)
		if err != nil {
			return nil, upstream("load item", err)
		}
		if item == nil {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
	}

	lg := s.logger.With().Str("actor_id", actorID).Str("user_id", userID).Logger()
	if o.Lifetime != nil {
		if err := s.users.SetLifetime(ctx, userID, *o.Lifetime); err != nil {
			return nil, upstream("set lifetime", err)
		}
		lg.Info().Bool("lifetime", *o.Lifetime).Msg("Lifetime access overridden")
	}
	switch {
	case o.ClearPremium:
		if err := s.users.SetPremiumUntil(ctx, userID, nil); err != nil {
			return nil, upstream("clear premium", err)
		}
		lg.Info().Msg("Premium access cleared")
	case o.PremiumUntil != nil:
		if err := s.users.SetPremiumUntil(ctx, userID, o.PremiumUntil); err != nil {
			return nil, upstream("set premium expiry", err)
		}
		lg.Info().Time("premium_until", *o.PremiumUntil).Msg("Premium expiry overridden")
	}
	for _, itemID := range o.GrantItemIDs {
		if err := s.users.AddGrantedItem(ctx, userID, itemID); err != nil {
			return nil, upstream("grant item", err)
		}
		lg.Info().Str("item_id", itemID).Msg("Item granted by admin")
	}

	updated, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, upstream("reload user", err)
	}
	return updated, nil
}
