package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"a2g/internal/api/v1/dto"
	"a2g/internal/api/v1/operation"
	"a2g/internal/middleware"
	"a2g/internal/model"
	"a2g/internal/payment"
	"a2g/internal/quiz"
	"a2g/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asUser(userID string) context.Context {
	return context.WithValue(context.Background(), middleware.UserContextKey, userID)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

type fakeAccess struct {
	denied map[string]bool
}

func (f *fakeAccess) CheckAccess(_ context.Context, _, itemID string) (*model.Item, error) {
	if f.denied[itemID] {
		return nil, service.ErrAccessDenied
	}
	if itemID == "missing" {
		return nil, service.ErrItemNotFound
	}
	return &model.Item{ID: itemID}, nil
}

func (f *fakeAccess) NoteDownloadURL(ctx context.Context, userID, noteID string) (string, time.Time, error) {
	if _, err := f.CheckAccess(ctx, userID, noteID); err != nil {
		return "", time.Time{}, err
	}
	return "https://s3.local/notes/" + noteID, time.Unix(0, 0), nil
}

func (f *fakeAccess) ListItems(context.Context, string, model.ItemKind, int, int) ([]service.CatalogueEntry, error) {
	return []service.CatalogueEntry{
		{Item: model.Item{ID: "free", Kind: model.ItemKindNote}},
		{Item: model.Item{ID: "paid", Kind: model.ItemKindTest, IsPremium: true}, Locked: true},
	}, nil
}

type fakePayments struct {
	err      error
	gotUser  string
	enqueued []payment.Callback
}

func (f *fakePayments) Verify(_ context.Context, userID string, cb payment.Callback) (*payment.Outcome, error) {
	f.gotUser = cb.UserID
	if f.err != nil {
		return nil, f.err
	}
	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &payment.Outcome{Grant: payment.PlanGrant{Kind: payment.GrantPro}, PremiumUntil: &until}, nil
}

func (f *fakePayments) Enqueue(_ context.Context, cb payment.Callback) (int64, error) {
	f.enqueued = append(f.enqueued, cb)
	return int64(len(f.enqueued)), nil
}

func (f *fakePayments) Process(context.Context, []byte) (*payment.Outcome, error) {
	return nil, errors.New("not used")
}

func (f *fakePayments) History(_ context.Context, userID string, _, _ int) ([]model.Payment, error) {
	f.gotUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return []model.Payment{{
		ID: "pay-1", OrderID: "o", PaymentID: "p", Signature: "secret-sig", Plan: "pro",
		Amount: 19900, Status: model.PaymentStatusVerified,
	}}, nil
}

// fakeQuiz implements only what the quiz handler tests call.
type fakeQuiz struct {
	service.QuizService
	submit *service.SubmitResult
	err    error
	nav    service.NavAction
}

func (f *fakeQuiz) Submit(context.Context, string, string) (*service.SubmitResult, error) {
	return f.submit, f.err
}

func (f *fakeQuiz) Abandon(context.Context, string, string) error {
	return f.err
}

func (f *fakeQuiz) Navigate(_ context.Context, _, _ string, action service.NavAction, index int) (*quiz.State, error) {
	f.nav = action
	return &quiz.State{ID: "s1", CurrentIndex: index}, nil
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{payment.ErrInvalidPayload, 400},
		{quiz.ErrInvalidOption, 422},
		{service.ErrAccessDenied, 403},
		{service.ErrForbidden, 403},
		{service.ErrSessionNotFound, 404},
		{fmt.Errorf("%w: x", service.ErrItemNotFound), 404},
		{payment.ErrSignatureMismatch, 409},
		{quiz.ErrSessionClosed, 409},
		{quiz.ErrTimeExpired, 409},
		{quiz.ErrFeedbackUnavailable, 409},
		{fmt.Errorf("%w: save: boom", service.ErrUpstream), 502},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusOf(t, toHTTPError(tt.err, zerolog.Nop(), "failed")))
		})
	}
}

func TestAccessDeniedCarriesUpgradeHint(t *testing.T) {
	err := toHTTPError(service.ErrAccessDenied, zerolog.Nop(), "failed")
	var em *huma.ErrorModel
	require.True(t, errors.As(err, &em))
	assert.Equal(t, "upgrade_required", em.Detail)

	err = toHTTPError(payment.ErrSignatureMismatch, zerolog.Nop(), "failed")
	require.True(t, errors.As(err, &em))
	assert.Equal(t, "payment verification failed", em.Detail)
}

func TestHandlersRequireUser(t *testing.T) {
	h := NewItemHandler(&fakeAccess{}, zerolog.Nop())
	_, err := h.ListItems(context.Background(), &operation.ListItemsInput{})
	assert.Equal(t, 401, statusOf(t, err))
}

func TestCheckAccessReportsDenial(t *testing.T) {
	h := NewItemHandler(&fakeAccess{denied: map[string]bool{"note42": true}}, zerolog.Nop())

	out, err := h.CheckAccess(asUser("u1"), &operation.CheckAccessInput{ItemID: "note42"})
	require.NoError(t, err)
	assert.False(t, out.Body.HasAccess)
	assert.Equal(t, "upgrade_required", out.Body.Reason)

	out, err = h.CheckAccess(asUser("u1"), &operation.CheckAccessInput{ItemID: "note-free"})
	require.NoError(t, err)
	assert.True(t, out.Body.HasAccess)

	_, err = h.CheckAccess(asUser("u1"), &operation.CheckAccessInput{ItemID: "missing"})
	assert.Equal(t, 404, statusOf(t, err))

	_, err = h.GetNoteDownloadURL(asUser("u1"), &operation.GetNoteDownloadURLInput{NoteID: "note42"})
	assert.Equal(t, 403, statusOf(t, err))

	list, err := h.ListItems(asUser("u1"), &operation.ListItemsInput{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Body.Items, 2)
	assert.True(t, list.Body.Items[1].Locked)
}

func TestVerifyPaymentUsesTokenUser(t *testing.T) {
	payments := &fakePayments{}
	h := NewPaymentHandler(payments, zerolog.Nop())

	out, err := h.VerifyPayment(asUser("u1"), &operation.VerifyPaymentInput{Body: dto.PaymentVerifyDTO{
		OrderID: "o", PaymentID: "p", Signature: "s", Plan: "pro",
	}})
	require.NoError(t, err)
	assert.Equal(t, "u1", payments.gotUser)
	assert.Equal(t, "pro", out.Body.Grant)
	assert.Equal(t, "verified", out.Body.Status)

	payments.err = fmt.Errorf("order o: %w", payment.ErrSignatureMismatch)
	_, err = h.VerifyPayment(asUser("u1"), &operation.VerifyPaymentInput{})
	assert.Equal(t, 409, statusOf(t, err))
}

func TestGetUserPayments(t *testing.T) {
	payments := &fakePayments{}
	h := NewPaymentHandler(payments, zerolog.Nop())

	out, err := h.GetUserPayments(asUser("u1"), &operation.GetUserPaymentsInput{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, "u1", payments.gotUser)
	require.Len(t, out.Body.Payments, 1)
	assert.Equal(t, "verified", out.Body.Payments[0].Status)
	assert.Equal(t, int64(19900), out.Body.Payments[0].Amount)

	_, err = h.GetUserPayments(context.Background(), &operation.GetUserPaymentsInput{})
	assert.Equal(t, 401, statusOf(t, err))

	payments.err = fmt.Errorf("%w: db", service.ErrUpstream)
	_, err = h.GetUserPayments(asUser("u1"), &operation.GetUserPaymentsInput{})
	assert.Equal(t, 502, statusOf(t, err))
}

func TestPaymentWebhookQueuesCallback(t *testing.T) {
	payments := &fakePayments{}
	h := NewPaymentHandler(payments, zerolog.Nop())

	body := dto.PaymentWebhookDTO{UserID: "u7"}
	body.OrderID, body.PaymentID, body.Signature, body.Plan = "o", "p", "s", "single_note"
	body.ContentID = ptr("note42")

	out, err := h.PaymentWebhook(context.Background(), &operation.PaymentWebhookInput{Body: body})
	require.NoError(t, err)
	assert.True(t, out.Body.Queued)
	require.Len(t, payments.enqueued, 1)
	assert.Equal(t, "u7", payments.enqueued[0].UserID)
	assert.Equal(t, "note42", *payments.enqueued[0].ContentID)
}

func TestSubmitSessionReportsDuplicate(t *testing.T) {
	res := &model.QuizResult{SessionID: "s1", Report: model.ResultReport{
		TotalQuestions: 1,
		Breakdown:      []model.QuestionResult{{QuestionID: "q1", Outcome: model.OutcomeSkipped}},
	}}
	q := &fakeQuiz{submit: &service.SubmitResult{Result: res, Duplicate: true}}
	h := NewQuizHandler(q, validator.New(), zerolog.Nop())

	out, err := h.SubmitSession(asUser("u1"), &operation.SubmitSessionInput{SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, out.Body.AlreadySubmitted)
	assert.Equal(t, []string{}, out.Body.Result.WeakTopics)
	assert.Len(t, out.Body.Result.Breakdown, 1)

	q.err = service.ErrSessionNotFound
	_, err = h.SubmitSession(asUser("u2"), &operation.SubmitSessionInput{SessionID: "s1"})
	assert.Equal(t, 404, statusOf(t, err))
}

func TestAbandonSession(t *testing.T) {
	q := &fakeQuiz{}
	h := NewQuizHandler(q, validator.New(), zerolog.Nop())

	_, err := h.AbandonSession(asUser("u1"), &operation.AbandonSessionInput{SessionID: "s1"})
	require.NoError(t, err)

	q.err = quiz.ErrAlreadyCompleted
	_, err = h.AbandonSession(asUser("u1"), &operation.AbandonSessionInput{SessionID: "s1"})
	assert.Equal(t, 409, statusOf(t, err))
}

func TestNavigateValidatesAction(t *testing.T) {
	q := &fakeQuiz{}
	h := NewQuizHandler(q, validator.New(), zerolog.Nop())

	_, err := h.Navigate(asUser("u1"), &operation.NavigateInput{Body: dto.NavigateDTO{Action: "jump"}})
	assert.Equal(t, 400, statusOf(t, err))

	out, err := h.Navigate(asUser("u1"), &operation.NavigateInput{Body: dto.NavigateDTO{Action: "goto", Index: 2}})
	require.NoError(t, err)
	assert.Equal(t, service.NavGoTo, q.nav)
	assert.Equal(t, 2, out.Body.CurrentIndex)
}

func ptr[T any](v T) *T { return &v }

func sessionState(mode quiz.Mode, status quiz.Status) *quiz.State {
	return &quiz.State{
		ID:   "s1",
		Mode: mode,
		QuestionSet: model.QuestionSet{Questions: []model.Question{
			{ID: "q1", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 1, Explanation: "because"},
			{ID: "q2", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2, Explanation: "see ch2"},
		}},
		Answers: map[int]int{0: 3},
		Status:  status,
	}
}

func TestSessionViewHidesAnswers(t *testing.T) {
	exam := toSessionDTO(sessionState(quiz.ModeExam, quiz.StatusInProgress))
	assert.Equal(t, 3, *exam.Questions[0].SelectedOption)
	for _, q := range exam.Questions {
		assert.Nil(t, q.CorrectOptionIndex)
		assert.Nil(t, q.Explanation)
	}
	assert.Equal(t, 1, exam.AnsweredCount)

	practice := toSessionDTO(sessionState(quiz.ModePractice, quiz.StatusInProgress))
	assert.Equal(t, 1, *practice.Questions[0].CorrectOptionIndex)
	assert.Nil(t, practice.Questions[1].CorrectOptionIndex, "unanswered practice question stays hidden")

	done := toSessionDTO(sessionState(quiz.ModeExam, quiz.StatusCompleted))
	assert.Equal(t, "see ch2", *done.Questions[1].Explanation)
	assert.Nil(t, done.Questions[1].SelectedOption)
}
