package repository

import (
	"context"
	"testing"
	"time"

	"a2g/internal/model"
	"a2g/internal/quiz"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func sampleSession(t *testing.T) *quiz.Session {
	t.Helper()
	qs := model.QuestionSet{ID: "set-1", Questions: []model.Question{
		{ID: "q1", Text: "Drug of choice?", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2, Topic: "pharmacology"},
		{ID: "q2", Text: "Normal pH?", Options: []string{"7.0", "7.4", "7.8", "8.0"}, CorrectOptionIndex: 1, Topic: "physiology"},
	}}
	s, err := quiz.NewSession("sess-1", "user-1", "test-1", qs, quiz.Options{TimeLimit: time.Hour})
	require.NoError(t, err)
	return s
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t, 24*time.Hour)
	ctx := context.Background()

	s := sampleSession(t)
	require.NoError(t, s.SelectAnswer(1, 1))
	s.GoTo(1)
	require.NoError(t, store.Save(ctx, s.State()))

	assert.True(t, mr.Exists("quiz:session:sess-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("quiz:session:sess-1"))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 1, got.CurrentIndex)
	assert.Equal(t, map[int]int{1: 1}, got.Answers)
	assert.Equal(t, quiz.StatusInProgress, got.Status)
	require.NotNil(t, got.Deadline)
	assert.True(t, s.State().Deadline.Equal(*got.Deadline))
}

func TestRedisSessionStoreMissingAndExpired(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	got, err := store.Load(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, sampleSession(t).State()))
	mr.FastForward(2 * time.Minute)
	got, err = store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession(t).State()))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	assert.False(t, mr.Exists("quiz:session:sess-1"))
	require.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestRedisSessionStoreCorruptValue(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	require.NoError(t, mr.Set("quiz:session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisSessionStoreKeepsCompletedSession(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	s := sampleSession(t)
	stale := s.State()
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, s.Submit())
	require.NoError(t, store.Save(ctx, s.State()))

	stale.Answers = map[int]int{0: 2}
	err := store.Save(ctx, stale)
	assert.ErrorIs(t, err, quiz.ErrSessionClosed)

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusCompleted, got.Status)
	assert.Empty(t, got.Answers)

	// completed states can still be rewritten
	require.NoError(t, store.Save(ctx, s.State()))
}
