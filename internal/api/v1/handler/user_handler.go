package handler

import (
	"context"
	"time"

	"a2g/internal/api/v1/dto"
	"a2g/internal/api/v1/operation"
	"a2g/internal/middleware"
	"a2g/internal/model"
	"a2g/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler implements Huma-based user operations
type UserHandler struct {
	userService service.UserService
	quizService service.QuizService
	now         func() time.Time
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, quizService service.QuizService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		quizService: quizService,
		now:         time.Now,
		logger:      logger,
	}
}

// CreateUser creates the profile on first sign-in from the token claims.
func (h *UserHandler) CreateUser(ctx context.Context, input *operation.CreateUserInput) (*operation.CreateUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	profile := &model.User{UserID: userID}
	if claims, ok := middleware.ClaimsFromContext(ctx); ok {
		profile.Name = claims.Name
		profile.Email = claims.Email
		profile.EmailVerified = claims.EmailVerified
	}
	if input.Body.Name != "" {
		profile.Name = input.Body.Name
	}

	user, err := h.userService.Ensure(ctx, profile)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to create user")
	}
	return &operation.CreateUserOutput{Body: toUserDTO(user, service.Summarize(user, h.now()))}, nil
}

// GetUser retrieves the authenticated user's profile
func (h *UserHandler) GetUser(ctx context.Context, input *operation.GetUserInput) (*operation.GetUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := h.userService.Get(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve user")
	}
	return &operation.GetUserOutput{Body: toUserDTO(user, service.Summarize(user, h.now()))}, nil
}

func (h *UserHandler) GetEntitlements(ctx context.Context, input *operation.GetEntitlementsInput) (*operation.GetEntitlementsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ent, err := h.userService.Entitlements(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve entitlements")
	}
	return &operation.GetEntitlementsOutput{Body: dto.EntitlementsDTO{
		Plan:           string(ent.Plan),
		PlanActive:     ent.PlanActive,
		PremiumUntil:   ent.PremiumUntil,
		IsLifetime:     ent.IsLifetime,
		GrantedItemIDs: ent.GrantedItemIDs,
	}}, nil
}

// GetUserResults lists the user's completed quiz reports, newest first.
func (h *UserHandler) GetUserResults(ctx context.Context, input *operation.GetUserResultsInput) (*operation.GetUserResultsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	results, err := h.quizService.History(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve results")
	}
	out := dto.ResultListResponseDTO{Results: make([]dto.ResultResponseDTO, len(results))}
	for i := range results {
		out.Results[i] = toResultDTO(&results[i], false)
	}
	return &operation.GetUserResultsOutput{Body: out}, nil
}
