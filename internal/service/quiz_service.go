package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"a2g/internal/model"
	"a2g/internal/pubsub"
	"a2g/internal/quiz"
	"a2g/internal/repository"
	"a2g/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type NavAction string

const (
	NavGoTo     NavAction = "goto"
	NavNext     NavAction = "next"
	NavPrevious NavAction = "previous"
)

// SubmitResult is the stored report of a session. Duplicate is set when the
// session had already been submitted before this call.
type SubmitResult struct {
	Result    *model.QuizResult
	Duplicate bool
}

type QuizService interface {
	Start(ctx context.Context, userID, testID string, mode quiz.Mode) (*quiz.State, error)
	Get(ctx context.Context, userID, sessionID string) (*quiz.State, error)
	Answer(ctx context.Context, userID, sessionID string, index, option int) (*quiz.State, error)
	Navigate(ctx context.Context, userID, sessionID string, action NavAction, index int) (*quiz.State, error)
	Feedback(ctx context.Context, userID, sessionID string, index int) (*model.QuestionResult, error)
	// Submit completes the session. Submitting twice returns the stored report.
	Submit(ctx context.Context, userID, sessionID string) (*SubmitResult, error)
	Result(ctx context.Context, userID, sessionID string) (*model.QuizResult, error)
	History(ctx context.Context, userID string, limit, offset int) ([]model.QuizResult, error)
	// Abandon discards an in-progress session without scoring it.
	Abandon(ctx context.Context, userID, sessionID string) error
}

type quizService struct {
	access    AccessService
	questions repository.QuestionRepository
	sessions  repository.SessionStore
	results   repository.ResultRepository
	events    pubsub.Emitter
	scoring   quiz.Scoring
	locks     util.KeyedMutex
	now       func() time.Time
	logger    zerolog.Logger
}

func NewQuizService(
	access AccessService,
	questions repository.QuestionRepository,
	sessions repository.SessionStore,
	results repository.ResultRepository,
	events pubsub.Emitter,
	scoring quiz.Scoring,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		access:    access,
		questions: questions,
		sessions:  sessions,
		results:   results,
		events:    events,
		scoring:   scoring,
		now:       time.Now,
		logger:    logger.With().Str("service", "QuizService").Logger(),
	}
}

func (s *quizService) Start(ctx context.Context, userID, testID string, mode quiz.Mode) (*quiz.State, error) {
	item, err := s.access.CheckAccess(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	if item.Kind != model.ItemKindTest {
		return nil, fmt.Errorf("%w: %s is not a test", ErrItemNotFound, testID)
	}
	qs, err := s.questions.GetQuestionSet(ctx, item.QuestionSetID)
	if err != nil {
		return nil, upstream("load question set", err)
	}
	if qs == nil {
		return nil, fmt.Errorf("%w: test %s has no questions", ErrItemNotFound, testID)
	}

	sess, err := quiz.NewSession(uuid.NewString(), userID, testID, *qs, quiz.Options{
		Mode:      mode,
		TimeLimit: item.TimeLimit(),
		Now:       s.now,
	})
	if err != nil {
		return nil, err
	}
	st := sess.State()
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("session_id", st.ID).Str("test_id", testID).Str("mode", string(st.Mode)).Msg("Quiz session started")
	s.events.Emit(ctx, pubsub.EventQuizStarted, map[string]any{
		"session_id": st.ID,
		"user_id":    userID,
		"test_id":    testID,
		"mode":       st.Mode,
	})
	return &st, nil
}

func (s *quizService) Get(ctx context.Context, userID, sessionID string) (*quiz.State, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, _, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &st, nil
}

func (s *quizService) Answer(ctx context.Context, userID, sessionID string, index, option int) (*quiz.State, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, timedOut, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if timedOut != nil {
		return nil, quiz.ErrTimeExpired
	}
	if err := sess.SelectAnswer(index, option); err != nil {
		return nil, err
	}
	st := sess.State()
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *quizService) Navigate(ctx context.Context, userID, sessionID string, action NavAction, index int) (*quiz.State, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, _, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	switch action {
	case NavGoTo:
		sess.GoTo(index)
	case NavNext:
		sess.Next()
	case NavPrevious:
		sess.Previous()
	default:
		return nil, fmt.Errorf("unknown navigation action %q", action)
	}
	st := sess.State()
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *quizService) Feedback(ctx context.Context, userID, sessionID string, index int) (*model.QuestionResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, _, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	fb, err := sess.Feedback(index)
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (s *quizService) Submit(ctx context.Context, userID, sessionID string) (*SubmitResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, timedOut, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if timedOut != nil {
		return &SubmitResult{Result: timedOut}, nil
	}

	duplicate := false
	if err := sess.Submit(); err != nil {
		if !errors.Is(err, quiz.ErrAlreadyCompleted) {
			return nil, err
		}
		s.logger.Info().Str("session_id", sessionID).Msg("Session already submitted; returning stored report")
		duplicate = true
	}
	res, inserted, err := s.finalize(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Result: res, Duplicate: duplicate || !inserted}, nil
}

func (s *quizService) Result(ctx context.Context, userID, sessionID string) (*model.QuizResult, error) {
	res, err := s.results.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, upstream("load result", err)
	}
	if res != nil {
		if res.UserID != userID {
			return nil, ErrSessionNotFound
		}
		return res, nil
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()
	sess, _, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status() != quiz.StatusCompleted {
		return nil, quiz.ErrNotCompleted
	}
	res, _, err = s.finalize(ctx, sess)
	return res, err
}

func (s *quizService) History(ctx context.Context, userID string, limit, offset int) ([]model.QuizResult, error) {
	results, err := s.results.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, upstream("list results", err)
	}
	return results, nil
}

func (s *quizService) Abandon(ctx context.Context, userID, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, timedOut, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if timedOut != nil || sess.Status() == quiz.StatusCompleted {
		return quiz.ErrAlreadyCompleted
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return upstream("delete session", err)
	}
	s.logger.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("Quiz session abandoned")
	return nil
}

func (s *quizService) save(ctx context.Context, st quiz.State) error {
	if err := s.sessions.Save(ctx, st); err != nil {
		if errors.Is(err, quiz.ErrSessionClosed) {
			s.logger.Warn().Str("session_id", st.ID).Msg("Session was completed elsewhere; change dropped")
			return err
		}
		return upstream("save session", err)
	}
	return nil
}

// load restores the caller's session. A timed session whose deadline has
// passed is completed and stored first; its result is returned when that
// happened during this call. Callers must hold the session lock.
func (s *quizService) load(ctx context.Context, userID, sessionID string) (*quiz.Session, *model.QuizResult, error) {
	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, upstream("load session", err)
	}
	if st == nil || st.UserID != userID {
		return nil, nil, ErrSessionNotFound
	}
	sess, err := quiz.Restore(*st, s.now)
	if err != nil {
		return nil, nil, err
	}
	if !sess.SubmitIfExpired() {
		return sess, nil, nil
	}
	s.logger.Info().Str("session_id", sessionID).Msg("Session time limit reached; submitting")
	res, _, err := s.finalize(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

// finalize scores a completed session, stores the report and the session. When
// a report already exists for the session it is returned unchanged.
func (s *quizService) finalize(ctx context.Context, sess *quiz.Session) (*model.QuizResult, bool, error) {
	st := sess.State()
	report, err := quiz.SummarizeState(st, s.scoring)
	if err != nil {
		return nil, false, err
	}
	res := &model.QuizResult{
		SessionID:      st.ID,
		UserID:         st.UserID,
		TestID:         st.TestID,
		CompletionType: st.CompletionType,
		Report:         *report,
		StartedAt:      st.StartedAt,
		CompletedAt:    *st.CompletedAt,
	}
	inserted, err := s.results.SaveResult(ctx, res)
	if err != nil {
		return nil, false, upstream("save result", err)
	}
	if err := s.save(ctx, st); err != nil {
		return nil, false, err
	}
	if inserted {
		s.logger.Info().
			Str("session_id", st.ID).
			Str("user_id", st.UserID).
			Int("percentage", res.Report.Percentage).
			Str("completion_type", string(res.CompletionType)).
			Msg("Quiz session completed")
		s.events.Emit(ctx, pubsub.EventQuizCompleted, map[string]any{
			"session_id":      st.ID,
			"user_id":         st.UserID,
			"test_id":         st.TestID,
			"score":           res.Report.Score,
			"percentage":      res.Report.Percentage,
			"weak_topics":     res.Report.WeakTopics,
			"completion_type": res.CompletionType,
		})
	}
	return res, inserted, nil
}
