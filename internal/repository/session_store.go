package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"a2g/internal/quiz"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "quiz:session:"
	saveRetries      = 3
)

// SessionStore holds in-progress and recently completed quiz sessions.
type SessionStore interface {
	// Save writes st. An in-progress state never replaces a stored completed one;
	// that write fails with quiz.ErrSessionClosed.
	Save(ctx context.Context, st quiz.State) error
	// Load returns nil, nil when the session is unknown or has expired.
	Load(ctx context.Context, sessionID string) (*quiz.State, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore keeps each session for ttl after its last write.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) Save(ctx context.Context, st quiz.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", st.ID, err)
	}
	key := sessionKeyPrefix + st.ID

	write := func(tx *redis.Tx) error {
		if st.Status != quiz.StatusCompleted {
			stored, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				var cur quiz.State
				if json.Unmarshal(stored, &cur) == nil && cur.Status == quiz.StatusCompleted {
					return quiz.ErrSessionClosed
				}
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for range saveRetries {
		err = s.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("store session %s: %w", st.ID, err)
	}
	return nil
}

func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (*quiz.State, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var st quiz.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &st, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}
