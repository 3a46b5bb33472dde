// Package quiz runs one user's attempt at a question set and scores it.
package quiz

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"a2g/internal/model"
)

var (
	ErrEmptyQuestionSet    = errors.New("question set has no questions")
	ErrInvalidQuestionSet  = errors.New("invalid question set")
	ErrInvalidIndex        = errors.New("question index out of range")
	ErrInvalidOption       = errors.New("option index out of range")
	ErrSessionClosed       = errors.New("session is closed")
	ErrAlreadyCompleted    = errors.New("session already completed")
	ErrNotCompleted        = errors.New("session not completed")
	ErrTimeExpired         = errors.New("session time limit expired")
	ErrAnswerLocked        = errors.New("answer already locked")
	ErrFeedbackUnavailable = errors.New("feedback unavailable until submission")
	ErrNotAnswered         = errors.New("question not answered")
)

type Mode string

const (
	// ModeExam hides correctness until the session is submitted.
	ModeExam Mode = "exam"
	// ModePractice locks each answer on first selection and reveals feedback for it.
	ModePractice Mode = "practice"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// State is the serializable form of a session.
type State struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	TestID         string               `json:"test_id"`
	Mode           Mode                 `json:"mode"`
	QuestionSet    model.QuestionSet    `json:"question_set"`
	CurrentIndex   int                  `json:"current_index"`
	Answers        map[int]int          `json:"answers"`
	Status         Status               `json:"status"`
	StartedAt      time.Time            `json:"started_at"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	CompletionType model.CompletionType `json:"completion_type,omitempty"`
}

// Session is a single attempt. All methods are safe for concurrent use; a
// successful Submit happens-before any later call observes the session.
type Session struct {
	mu  sync.Mutex
	st  State
	now func() time.Time
}

type Options struct {
	Mode      Mode
	TimeLimit time.Duration
	Now       func() time.Time
}

// ValidateQuestionSet checks the shape invariants of a question set.
func ValidateQuestionSet(qs model.QuestionSet) error {
	if len(qs.Questions) == 0 {
		return ErrEmptyQuestionSet
	}
	for i, q := range qs.Questions {
		if len(q.Options) != model.OptionsPerQuestion {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidQuestionSet, i, len(q.Options))
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= model.OptionsPerQuestion {
			return fmt.Errorf("%w: question %d has correct option %d", ErrInvalidQuestionSet, i, q.CorrectOptionIndex)
		}
	}
	return nil
}

// NewSession starts an attempt at qs for userID.
func NewSession(id, userID, testID string, qs model.QuestionSet, opts Options) (*Session, error) {
	if err := ValidateQuestionSet(qs); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = ModeExam
	}
	if opts.Mode != ModeExam && opts.Mode != ModePractice {
		return nil, fmt.Errorf("unknown quiz mode %q", opts.Mode)
	}
	started := opts.Now()
	st := State{
		ID:          id,
		UserID:      userID,
		TestID:      testID,
		Mode:        opts.Mode,
		QuestionSet: cloneQuestionSet(qs),
		Answers:     map[int]int{},
		Status:      StatusInProgress,
		StartedAt:   started,
	}
	if opts.TimeLimit > 0 {
		deadline := started.Add(opts.TimeLimit)
		st.Deadline = &deadline
	}
	return &Session{st: st, now: opts.Now}, nil
}

// Restore rebuilds a session from a stored State.
func Restore(st State, now func() time.Time) (*Session, error) {
	if err := ValidateQuestionSet(st.QuestionSet); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	if st.Answers == nil {
		st.Answers = map[int]int{}
	}
	return &Session{st: cloneState(st), now: now}, nil
}

// State returns a deep copy of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.st)
}

func (s *Session) ID() string { return s.st.ID }

func (s *Session) UserID() string { return s.st.UserID }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Status
}

// SelectAnswer records option for the question at index. The last write wins,
// except in practice mode where the first answer is locked.
func (s *Session) SelectAnswer(index, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.Status == StatusCompleted {
		return ErrSessionClosed
	}
	if s.expiredLocked() {
		return ErrTimeExpired
	}
	if index < 0 || index >= len(s.st.QuestionSet.Questions) {
		return ErrInvalidIndex
	}
	if option < 0 || option >= model.OptionsPerQuestion {
		return ErrInvalidOption
	}
	if s.st.Mode == ModePractice {
		if _, answered := s.st.Answers[index]; answered {
			return ErrAnswerLocked
		}
	}
	s.st.Answers[index] = option
	return nil
}

// GoTo moves to index, clamped to the question range, and returns the new index.
func (s *Session) GoTo(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToLocked(index)
}

func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToLocked(s.st.CurrentIndex + 1)
}

func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToLocked(s.st.CurrentIndex - 1)
}

func (s *Session) goToLocked(index int) int {
	s.st.CurrentIndex = max(0, min(index, len(s.st.QuestionSet.Questions)-1))
	return s.st.CurrentIndex
}

// Submit completes the session. It succeeds exactly once.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked(model.CompletionManual)
}

// SubmitIfExpired completes a timed session whose deadline has passed and
// reports whether it did so.
func (s *Session) SubmitIfExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.Status != StatusInProgress || !s.expiredLocked() {
		return false
	}
	return s.completeLocked(model.CompletionTimeout) == nil
}

// Feedback reveals the outcome of an answered question. Exam sessions only
// reveal feedback after submission.
func (s *Session) Feedback(index int) (model.QuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.st.QuestionSet.Questions) {
		return model.QuestionResult{}, ErrInvalidIndex
	}
	if s.st.Mode == ModeExam && s.st.Status != StatusCompleted {
		return model.QuestionResult{}, ErrFeedbackUnavailable
	}
	given, answered := s.st.Answers[index]
	if !answered && s.st.Status != StatusCompleted {
		return model.QuestionResult{}, ErrNotAnswered
	}
	var ans *int
	if answered {
		ans = &given
	}
	return classify(s.st.QuestionSet.Questions[index], ans), nil
}

func (s *Session) completeLocked(kind model.CompletionType) error {
	if s.st.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	now := s.now()
	s.st.Status = StatusCompleted
	s.st.CompletedAt = &now
	s.st.CompletionType = kind
	return nil
}

func (s *Session) expiredLocked() bool {
	return s.st.Deadline != nil && !s.now().Before(*s.st.Deadline)
}

func cloneQuestionSet(qs model.QuestionSet) model.QuestionSet {
	out := model.QuestionSet{ID: qs.ID, Questions: make([]model.Question, len(qs.Questions))}
	for i, q := range qs.Questions {
		q.Options = slices.Clone(q.Options)
		out.Questions[i] = q
	}
	return out
}

func cloneState(st State) State {
	out := st
	out.QuestionSet = cloneQuestionSet(st.QuestionSet)
	out.Answers = maps.Clone(st.Answers)
	if out.Answers == nil {
		out.Answers = map[int]int{}
	}
	if st.Deadline != nil {
		d := *st.Deadline
		out.Deadline = &d
	}
	if st.CompletedAt != nil {
		c := *st.CompletedAt
		out.CompletedAt = &c
	}
	return out
}
