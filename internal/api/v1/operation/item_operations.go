package operation

import "a2g/internal/api/v1/dto"

type ListItemsInput struct {
	Kind   string `query:"kind" enum:"note,test" doc:"Filter by item kind"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of items to return"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListItemsOutput struct {
	Body dto.ItemListResponseDTO `json:"body"`
}

type CheckAccessInput struct {
	ItemID string `path:"itemId" doc:"Item ID"`
}

type CheckAccessOutput struct {
	Body dto.AccessResponseDTO `json:"body"`
}

type GetNoteDownloadURLInput struct {
	NoteID string `path:"noteId" doc:"Note ID"`
}

type GetNoteDownloadURLOutput struct {
	Body dto.SignedURLResponseDTO `json:"body"`
}
