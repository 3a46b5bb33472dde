package handler

import (
	"context"

	"a2g/internal/api/v1/operation"
	"a2g/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l}
}

// RecordDLQ stores an event that exhausted its Pub/Sub delivery attempts.
func (h *DLQHandler) RecordDLQ(ctx context.Context, input *operation.RecordDLQInput) (*operation.RecordDLQOutput, error) {
	if input.Body.Message.MessageID == "" {
		return nil, huma.Error400BadRequest("Invalid Pub/Sub message format: missing message ID")
	}

	if err := h.service.ProcessAndSave(ctx, &input.Body); err != nil {
		// Acknowledge anyway; a redelivered dead letter would only fail again.
		h.logger.Error().Err(err).
			Str("messageId", input.Body.Message.MessageID).
			Str("subscription", input.Body.Subscription).
			Msg("Failed to save DLQ message")
		return &operation.RecordDLQOutput{}, nil
	}

	h.logger.Info().Str("messageId", input.Body.Message.MessageID).Msg("Recorded dead-lettered event")
	return &operation.RecordDLQOutput{}, nil
}
