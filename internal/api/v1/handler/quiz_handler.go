package handler

import (
	"context"

	"a2g/internal/api/v1/dto"
	"a2g/internal/api/v1/operation"
	"a2g/internal/quiz"
	"a2g/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type QuizHandler struct {
	quizService service.QuizService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewQuizHandler(quizService service.QuizService, validate *validator.Validate, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{quizService: quizService, validate: validate, logger: logger}
}

func (h *QuizHandler) StartSession(ctx context.Context, input *operation.StartSessionInput) (*operation.StartSessionOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	mode := quiz.Mode(input.Body.Mode)
	if mode == "" {
		mode = quiz.ModeExam
	}
	st, err := h.quizService.Start(ctx, userID, input.TestID, mode)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to start session")
	}
	return &operation.StartSessionOutput{Body: toSessionDTO(st)}, nil
}

func (h *QuizHandler) GetSession(ctx context.Context, input *operation.GetSessionInput) (*operation.GetSessionOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	st, err := h.quizService.Get(ctx, userID, input.SessionID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve session")
	}
	return &operation.GetSessionOutput{Body: toSessionDTO(st)}, nil
}

func (h *QuizHandler) SelectAnswer(ctx context.Context, input *operation.SelectAnswerInput) (*operation.SelectAnswerOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	st, err := h.quizService.Answer(ctx, userID, input.SessionID, input.Index, input.Body.Option)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to record answer")
	}
	return &operation.SelectAnswerOutput{Body: toSessionDTO(st)}, nil
}

func (h *QuizHandler) Navigate(ctx context.Context, input *operation.NavigateInput) (*operation.NavigateOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.validate.Struct(&input.Body); err != nil {
		return nil, huma.Error400BadRequest("Validation failed: " + err.Error())
	}

	st, err := h.quizService.Navigate(ctx, userID, input.SessionID, service.NavAction(input.Body.Action), input.Body.Index)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to navigate")
	}
	return &operation.NavigateOutput{Body: toSessionDTO(st)}, nil
}

// GetFeedback reveals one answered question in practice mode, or any
// question once the session is completed.
func (h *QuizHandler) GetFeedback(ctx context.Context, input *operation.GetFeedbackInput) (*operation.GetFeedbackOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	fb, err := h.quizService.Feedback(ctx, userID, input.SessionID, input.Index)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve feedback")
	}
	return &operation.GetFeedbackOutput{Body: toQuestionResultDTO(*fb)}, nil
}

// SubmitSession completes the session. Repeated submits return the stored
// report instead of an error.
func (h *QuizHandler) SubmitSession(ctx context.Context, input *operation.SubmitSessionInput) (*operation.SubmitSessionOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := h.quizService.Submit(ctx, userID, input.SessionID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to submit session")
	}
	return &operation.SubmitSessionOutput{Body: dto.SubmitResponseDTO{
		AlreadySubmitted: res.Duplicate,
		Result:           toResultDTO(res.Result, true),
	}}, nil
}

func (h *QuizHandler) GetResult(ctx context.Context, input *operation.GetResultInput) (*operation.GetResultOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := h.quizService.Result(ctx, userID, input.SessionID)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve result")
	}
	return &operation.GetResultOutput{Body: toResultDTO(res, true)}, nil
}

// AbandonSession discards an unfinished attempt. Completed sessions keep their report.
func (h *QuizHandler) AbandonSession(ctx context.Context, input *operation.AbandonSessionInput) (*operation.AbandonSessionOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.quizService.Abandon(ctx, userID, input.SessionID); err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to abandon session")
	}
	return &operation.AbandonSessionOutput{}, nil
}
