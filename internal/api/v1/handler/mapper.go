package handler

import (
	"a2g/internal/api/v1/dto"
	"a2g/internal/model"
	"a2g/internal/quiz"
	"a2g/internal/service"
)

func toUserDTO(u *model.User, ent *service.EntitlementSummary) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:        u.UserID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Role:          string(u.Role),
		Entitlements: dto.EntitlementsDTO{
			Plan:           string(ent.Plan),
			PlanActive:     ent.PlanActive,
			PremiumUntil:   ent.PremiumUntil,
			IsLifetime:     ent.IsLifetime,
			GrantedItemIDs: ent.GrantedItemIDs,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toItemDTO(e service.CatalogueEntry) dto.ItemResponseDTO {
	return dto.ItemResponseDTO{
		ID:               e.ID,
		Kind:             string(e.Kind),
		Title:            e.Title,
		Subject:          e.Subject,
		IsPremium:        e.IsPremium,
		Price:            e.Price,
		TimeLimitSeconds: e.TimeLimitSeconds,
		Locked:           e.Locked,
		CreatedAt:        e.CreatedAt,
	}
}

// toSessionDTO renders a session for its owner. The correct option and the
// explanation are revealed for every question once the session is completed,
// and for answered questions in practice mode.
func toSessionDTO(st *quiz.State) dto.SessionResponseDTO {
	completed := st.Status == quiz.StatusCompleted
	questions := make([]dto.SessionQuestionDTO, len(st.QuestionSet.Questions))
	for i, q := range st.QuestionSet.Questions {
		view := dto.SessionQuestionDTO{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
			Topic:   q.Topic,
		}
		given, answered := st.Answers[i]
		if answered {
			view.SelectedOption = &given
		}
		if completed || (st.Mode == quiz.ModePractice && answered) {
			correct := q.CorrectOptionIndex
			explanation := q.Explanation
			view.CorrectOptionIndex = &correct
			view.Explanation = &explanation
		}
		questions[i] = view
	}
	return dto.SessionResponseDTO{
		SessionID:      st.ID,
		TestID:         st.TestID,
		Mode:           string(st.Mode),
		Status:         string(st.Status),
		CurrentIndex:   st.CurrentIndex,
		TotalQuestions: len(questions),
		AnsweredCount:  len(st.Answers),
		Questions:      questions,
		StartedAt:      st.StartedAt,
		Deadline:       st.Deadline,
		CompletedAt:    st.CompletedAt,
		CompletionType: string(st.CompletionType),
	}
}

func toQuestionResultDTO(r model.QuestionResult) dto.QuestionResultDTO {
	return dto.QuestionResultDTO{
		QuestionID:    r.QuestionID,
		Topic:         r.Topic,
		GivenAnswer:   r.GivenAnswer,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Outcome:       string(r.Outcome),
	}
}

func toResultDTO(res *model.QuizResult, withBreakdown bool) dto.ResultResponseDTO {
	out := dto.ResultResponseDTO{
		SessionID:      res.SessionID,
		TestID:         res.TestID,
		CompletionType: string(res.CompletionType),
		Score:          res.Report.Score,
		TotalQuestions: res.Report.TotalQuestions,
		CorrectCount:   res.Report.CorrectCount,
		IncorrectCount: res.Report.IncorrectCount,
		SkippedCount:   res.Report.SkippedCount,
		Percentage:     res.Report.Percentage,
		WeakTopics:     res.Report.WeakTopics,
		StartedAt:      res.StartedAt,
		CompletedAt:    res.CompletedAt,
	}
	if out.WeakTopics == nil {
		out.WeakTopics = []string{}
	}
	if withBreakdown {
		out.Breakdown = make([]dto.QuestionResultDTO, len(res.Report.Breakdown))
		for i, r := range res.Report.Breakdown {
			out.Breakdown[i] = toQuestionResultDTO(r)
		}
	}
	return out
}
