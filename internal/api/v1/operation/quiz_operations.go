package operation

import "a2g/internal/api/v1/dto"

type StartSessionInput struct {
	TestID string              `path:"testId" doc:"Test ID"`
	Body   dto.StartSessionDTO `json:"body" required:"false"`
}

type StartSessionOutput struct {
	Body dto.SessionResponseDTO `json:"body"`
}

type GetSessionInput struct {
	SessionID string `path:"sessionId" doc:"Session ID"`
}

type GetSessionOutput struct {
	Body dto.SessionResponseDTO `json:"body"`
}

type SelectAnswerInput struct {
	SessionID string        `path:"sessionId" doc:"Session ID"`
	Index     int           `path:"index" minimum:"0" doc:"Question index"`
	Body      dto.AnswerDTO `json:"body"`
}

type SelectAnswerOutput struct {
	Body dto.SessionResponseDTO `json:"body"`
}

type NavigateInput struct {
	SessionID string          `path:"sessionId" doc:"Session ID"`
	Body      dto.NavigateDTO `json:"body"`
}

type NavigateOutput struct {
	Body dto.SessionResponseDTO `json:"body"`
}

type GetFeedbackInput struct {
	SessionID string `path:"sessionId" doc:"Session ID"`
	Index     int    `path:"index" minimum:"0" doc:"Question index"`
}

type GetFeedbackOutput struct {
	Body dto.QuestionResultDTO `json:"body"`
}

type SubmitSessionInput struct {
	SessionID string `path:"sessionId" doc:"Session ID"`
}

type SubmitSessionOutput struct {
	Body dto.SubmitResponseDTO `json:"body"`
}

type GetResultInput struct {
	SessionID string `path:"sessionId" doc:"Session ID"`
}

type GetResultOutput struct {
	Body dto.ResultResponseDTO `json:"body"`
}

type AbandonSessionInput struct {
	SessionID string `path:"sessionId" doc:"Session ID"`
}

type AbandonSessionOutput struct {
	// 204 No Content
}
