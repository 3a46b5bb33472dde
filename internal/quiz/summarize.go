package quiz

import (
	"math"

	"a2g/internal/model"
)

// Scoring sets the points awarded per answer. PointsPerIncorrect may be
// negative for exam patterns with negative marking.
type Scoring struct {
	PointsPerCorrect   float64
	PointsPerIncorrect float64
}

// DefaultScoring is one point per correct answer and no penalty.
var DefaultScoring = Scoring{PointsPerCorrect: 1, PointsPerIncorrect: 0}

// Summarize derives the result report of a completed session.
func Summarize(s *Session, scoring Scoring) (*model.ResultReport, error) {
	return SummarizeState(s.State(), scoring)
}

// SummarizeState is Summarize over a stored session state.
func SummarizeState(st State, scoring Scoring) (*model.ResultReport, error) {
	if st.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	if scoring == (Scoring{}) {
		scoring = DefaultScoring
	}

	questions := st.QuestionSet.Questions
	report := &model.ResultReport{
		TotalQuestions: len(questions),
		WeakTopics:     []string{},
		Breakdown:      make([]model.QuestionResult, 0, len(questions)),
	}
	seenTopic := map[string]bool{}
	for i, q := range questions {
		var given *int
		if a, ok := st.Answers[i]; ok {
			given = &a
		}
		row := classify(q, given)
		switch row.Outcome {
		case model.OutcomeCorrect:
			report.CorrectCount++
		case model.OutcomeIncorrect:
			report.IncorrectCount++
			if q.Topic != "" && !seenTopic[q.Topic] {
				seenTopic[q.Topic] = true
				report.WeakTopics = append(report.WeakTopics, q.Topic)
			}
		case model.OutcomeSkipped:
			report.SkippedCount++
		}
		report.Breakdown = append(report.Breakdown, row)
	}

	report.Score = float64(report.CorrectCount)*scoring.PointsPerCorrect +
		float64(report.IncorrectCount)*scoring.PointsPerIncorrect
	if report.TotalQuestions > 0 {
		report.Percentage = roundHalfUp(report.Score * 100 / float64(report.TotalQuestions))
	}
	return report, nil
}

func classify(q model.Question, given *int) model.QuestionResult {
	row := model.QuestionResult{
		QuestionID:    q.ID,
		Topic:         q.Topic,
		GivenAnswer:   given,
		CorrectAnswer: q.CorrectOptionIndex,
		Explanation:   q.Explanation,
	}
	switch {
	case given == nil:
		row.Outcome = model.OutcomeSkipped
	case *given == q.CorrectOptionIndex:
		row.Outcome = model.OutcomeCorrect
	default:
		row.Outcome = model.OutcomeIncorrect
	}
	return row
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
