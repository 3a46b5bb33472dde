package handler

import (
	"context"
	"time"

	"a2g/internal/api/v1/operation"
	"a2g/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	adminService service.AdminService
	validate     *validator.Validate
	now          func() time.Time
	logger       zerolog.Logger
}

func NewAdminHandler(adminService service.AdminService, validate *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, validate: validate, now: time.Now, logger: logger}
}

func (h *AdminHandler) OverrideEntitlements(ctx context.Context, input *operation.OverrideEntitlementsInput) (*operation.OverrideEntitlementsOutput, error) {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.validate.Struct(&input.Body); err != nil {
		return nil, huma.Error400BadRequest("Validation failed: " + err.Error())
	}
	if input.Body.ClearPremium && input.Body.PremiumUntil != nil {
		return nil, huma.Error400BadRequest("premium_until and clear_premium are mutually exclusive")
	}

	user, err := h.adminService.ApplyOverride(ctx, actorID, input.UserID, service.EntitlementOverride{
		Lifetime:     input.Body.Lifetime,
		PremiumUntil: input.Body.PremiumUntil,
		ClearPremium: input.Body.ClearPremium,
		GrantItemIDs: input.Body.GrantItemIDs,
	})
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to apply entitlement override")
	}
	return &operation.OverrideEntitlementsOutput{Body: toUserDTO(user, service.Summarize(user, h.now()))}, nil
}
