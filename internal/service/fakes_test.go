package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"a2g/internal/model"
	"a2g/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
)

var errDB = errors.New("connection refused")

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	err   error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *fakeUserRepo) EnsureUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if existing, ok := r.users[u.UserID]; ok {
		existing.Name, existing.Email, existing.EmailVerified = u.Name, u.Email, u.EmailVerified
		*u = *existing
		return nil
	}
	u.Plan, u.Role = model.PlanNone, model.RoleStudent
	stored := *u
	r.users[u.UserID] = &stored
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.GrantedItemIDs = slices.Clone(u.GrantedItemIDs)
	return &cp, nil
}

func (r *fakeUserRepo) update(id string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *fakeUserRepo) SetProPlan(_ context.Context, id string, until time.Time) error {
	return r.update(id, func(u *model.User) {
		u.Plan = model.PlanPro
		u.PremiumUntil = &until
	})
}

func (r *fakeUserRepo) AddGrantedItem(_ context.Context, id, itemID string) error {
	return r.update(id, func(u *model.User) {
		if !slices.Contains(u.GrantedItemIDs, itemID) {
			u.GrantedItemIDs = append(u.GrantedItemIDs, itemID)
		}
	})
}

func (r *fakeUserRepo) SetLifetime(_ context.Context, id string, lifetime bool) error {
	return r.update(id, func(u *model.User) { u.IsLifetime = lifetime })
}

func (r *fakeUserRepo) SetPremiumUntil(_ context.Context, id string, until *time.Time) error {
	return r.update(id, func(u *model.User) {
		u.PremiumUntil = until
		u.Plan = model.PlanNone
		if until != nil {
			u.Plan = model.PlanPro
		}
	})
}

type fakeItemRepo struct {
	items []model.Item
	err   error
}

func (r *fakeItemRepo) GetItem(_ context.Context, id string) (*model.Item, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			it := r.items[i]
			return &it, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) ListItems(_ context.Context, kind model.ItemKind, limit, offset int) ([]model.Item, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []model.Item{}
	for _, it := range r.items {
		if kind == "" || it.Kind == kind {
			out = append(out, it)
		}
	}
	if offset >= len(out) {
		return []model.Item{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeQuestionRepo struct {
	sets map[string]*model.QuestionSet
}

func (r *fakeQuestionRepo) GetQuestionSet(_ context.Context, setID string) (*model.QuestionSet, error) {
	return r.sets[setID], nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[string]model.QuizResult
	saves   int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: map[string]model.QuizResult{}}
}

func (r *fakeResultRepo) SaveResult(_ context.Context, res *model.QuizResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if existing, ok := r.results[res.SessionID]; ok {
		*res = existing
		return false, nil
	}
	res.ID = "result-" + res.SessionID
	res.CreatedAt = testNow
	r.results[res.SessionID] = *res
	return true, nil
}

func (r *fakeResultRepo) GetBySessionID(_ context.Context, sessionID string) (*model.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[sessionID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *fakeResultRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.QuizResult{}
	for _, res := range r.results {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, nil
}

type emitted struct {
	Type string
	Data any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *fakeEmitter) Emit(_ context.Context, eventType string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{Type: eventType, Data: data})
}

func (e *fakeEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testS3Client presigns locally; no request ever leaves the process.
func testS3Client() *s3.Client {
	return s3.New(s3.Options{
		Region:       "ap-south-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test-access", "test-secret", ""),
		BaseEndpoint: aws.String("http://localhost:9000"),
		UsePathStyle: true,
	})
}

func newTestSessionStore(t *testing.T) repository.SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisSessionStore(client, time.Hour)
}

func ptr[T any](v T) *T { return &v }
