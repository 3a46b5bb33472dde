package handler

import (
	"context"
	"errors"

	"a2g/internal/middleware"
	"a2g/internal/payment"
	"a2g/internal/quiz"
	"a2g/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

// Helper to extract user ID from context (injected by auth middleware)
func getUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("User ID not found in context")
	}
	return userID, nil
}

// toHTTPError maps service and domain errors onto API errors. Upstream and
// unknown failures are logged; their causes are not exposed to clients.
func toHTTPError(err error, logger zerolog.Logger, msg string) error {
	switch {
	case errors.Is(err, payment.ErrInvalidPayload),
		errors.Is(err, quiz.ErrInvalidQuestionSet),
		errors.Is(err, quiz.ErrEmptyQuestionSet):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, quiz.ErrInvalidIndex),
		errors.Is(err, quiz.ErrInvalidOption):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		return huma.Error403Forbidden("upgrade_required")
	case errors.Is(err, service.ErrForbidden):
		return huma.Error403Forbidden("forbidden")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, payment.ErrSignatureMismatch):
		return huma.Error409Conflict("payment verification failed")
	case errors.Is(err, quiz.ErrSessionClosed),
		errors.Is(err, quiz.ErrAlreadyCompleted),
		errors.Is(err, quiz.ErrNotCompleted),
		errors.Is(err, quiz.ErrTimeExpired),
		errors.Is(err, quiz.ErrAnswerLocked),
		errors.Is(err, quiz.ErrFeedbackUnavailable),
		errors.Is(err, quiz.ErrNotAnswered):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrUpstream):
		logger.Error().Err(err).Msg(msg)
		return huma.Error502BadGateway(msg)
	default:
		logger.Error().Err(err).Msg(msg)
		return huma.Error500InternalServerError(msg)
	}
}
