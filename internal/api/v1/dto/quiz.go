package dto

import "time"

type StartSessionDTO struct {
	Mode string `json:"mode,omitempty" enum:"exam,practice" default:"exam" doc:"exam hides correctness until submission"`
}

type AnswerDTO struct {
	Option int `json:"option" minimum:"0" maximum:"3" doc:"Selected option index"`
}

type NavigateDTO struct {
	Action string `json:"action" enum:"goto,next,previous" validate:"required,oneof=goto next previous"`
	Index  int    `json:"index,omitempty" doc:"Target question for goto; clamped to the question range"`
}

// SessionQuestionDTO is a question as shown to the test taker. Correctness
// fields are only filled once they may be revealed.
type SessionQuestionDTO struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	Topic              string   `json:"topic"`
	SelectedOption     *int     `json:"selected_option,omitempty"`
	CorrectOptionIndex *int     `json:"correct_option_index,omitempty"`
	Explanation        *string  `json:"explanation,omitempty"`
}

type SessionResponseDTO struct {
	SessionID      string               `json:"session_id"`
	TestID         string               `json:"test_id"`
	Mode           string               `json:"mode"`
	Status         string               `json:"status"`
	CurrentIndex   int                  `json:"current_index"`
	TotalQuestions int                  `json:"total_questions"`
	AnsweredCount  int                  `json:"answered_count"`
	Questions      []SessionQuestionDTO `json:"questions"`
	StartedAt      time.Time            `json:"started_at"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	CompletionType string               `json:"completion_type,omitempty"`
}

type QuestionResultDTO struct {
	QuestionID    string `json:"question_id"`
	Topic         string `json:"topic"`
	GivenAnswer   *int   `json:"given_answer"`
	CorrectAnswer int    `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Outcome       string `json:"outcome" enum:"correct,incorrect,skipped"`
}

type ResultResponseDTO struct {
	SessionID      string              `json:"session_id"`
	TestID         string              `json:"test_id"`
	CompletionType string              `json:"completion_type" enum:"manual,timeout"`
	Score          float64             `json:"score"`
	TotalQuestions int                 `json:"total_questions"`
	CorrectCount   int                 `json:"correct_count"`
	IncorrectCount int                 `json:"incorrect_count"`
	SkippedCount   int                 `json:"skipped_count"`
	Percentage     int                 `json:"percentage"`
	WeakTopics     []string            `json:"weak_topics"`
	Breakdown      []QuestionResultDTO `json:"breakdown,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    time.Time           `json:"completed_at"`
}

type SubmitResponseDTO struct {
	// AlreadySubmitted is set when an earlier call completed the session.
	AlreadySubmitted bool              `json:"already_submitted"`
	Result           ResultResponseDTO `json:"result"`
}

type ResultListResponseDTO struct {
	Results []ResultResponseDTO `json:"results"`
}
