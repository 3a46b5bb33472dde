package operation

import "a2g/internal/api/v1/dto"

// User Operations

type CreateUserInput struct {
	Body dto.UserCreateDTO `json:"body" required:"false"`
}

type CreateUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetUserInput struct {
	// No input needed - user ID comes from auth context
}

type GetUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetUserResultsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Number of results to return"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type GetUserResultsOutput struct {
	Body dto.ResultListResponseDTO `json:"body"`
}

// Admin Operations

type OverrideEntitlementsInput struct {
	UserID string                     `path:"userId" doc:"Target user ID"`
	Body   dto.EntitlementOverrideDTO `json:"body"`
}

type OverrideEntitlementsOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetEntitlementsInput struct {
	// No input needed - user ID comes from auth context
}

type GetEntitlementsOutput struct {
	Body dto.EntitlementsDTO `json:"body"`
}
