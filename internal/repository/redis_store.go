package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"placement-service/internal/adaptive"
)

// sessionTTL bounds how long an unfinished session survives in redis.
const sessionTTL = 24 * time.Hour

// RedisSessionStore keeps sessions as JSON values with a TTL, for
// deployments where the service itself must stay stateless.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a store over the given client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return "placement:session:" + sessionID
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*adaptive.DiagnosticSession, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var session adaptive.DiagnosticSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, session *adaptive.DiagnosticSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(session.SessionID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
