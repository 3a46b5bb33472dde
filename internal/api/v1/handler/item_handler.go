package handler

import (
	"context"
	"errors"

	"a2g/internal/api/v1/dto"
	"a2g/internal/api/v1/operation"
	"a2g/internal/model"
	"a2g/internal/service"

	"github.com/rs/zerolog"
)

type ItemHandler struct {
	accessService service.AccessService
	logger        zerolog.Logger
}

func NewItemHandler(accessService service.AccessService, logger zerolog.Logger) *ItemHandler {
	return &ItemHandler{accessService: accessService, logger: logger}
}

// ListItems returns the catalogue with the caller's lock state per item.
func (h *ItemHandler) ListItems(ctx context.Context, input *operation.ListItemsInput) (*operation.ListItemsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := h.accessService.ListItems(ctx, userID, model.ItemKind(input.Kind), input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to list items")
	}
	out := dto.ItemListResponseDTO{Items: make([]dto.ItemResponseDTO, len(entries))}
	for i, e := range entries {
		out.Items[i] = toItemDTO(e)
	}
	return &operation.ListItemsOutput{Body: out}, nil
}

// CheckAccess answers whether the caller may open an item. A denial is a
// normal answer here, not an error.
func (h *ItemHandler) CheckAccess(ctx context.Context, input *operation.CheckAccessInput) (*operation.CheckAccessOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp := dto.AccessResponseDTO{ItemID: input.ItemID, HasAccess: true}
	if _, err := h.accessService.CheckAccess(ctx, userID, input.ItemID); err != nil {
		if !errors.Is(err, service.ErrAccessDenied) {
			return nil, toHTTPError(err, h.logger, "Failed to check access")
		}
		resp.HasAccess = false
		resp.Reason = service.ErrAccessDenied.Error()
	}
	return &operation.CheckAccessOutput{Body: resp}, nil
}

func (h *ItemHandler) GetNoteDownloadURL(ctx context.Context, input *operation.GetNoteDownloadURLInput) (*operation.GetNoteDownloadURLOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := h.accessService.NoteDownloadURL(ctx, userID, input.NoteID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to generate download URL")
	}
	return &operation.GetNoteDownloadURLOutput{
		Body: dto.SignedURLResponseDTO{URL: url, ExpiresAt: expiresAt},
	}, nil
}
