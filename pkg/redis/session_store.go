package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "admin:session:"

// SessionStore keeps admin session ids with an expiry.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client redis.Cmdable
}

// NewSessionStore returns a SessionStore backed by client.
func NewSessionStore(client redis.Cmdable) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), time.Now().Unix(), ttl).Err(); err != nil {
		logger.Error("Failed to save admin session", err, map[string]interface{}{
			"ttl": ttl.String(),
		})
		return err
	}
	return nil
}

func (s *redisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	err := s.client.Get(ctx, sessionKey(sessionID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to look up admin session", err, nil)
		return false, err
	}
	return true, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		logger.Error("Failed to delete admin session", err, nil)
		return err
	}
	return nil
}

// MemorySessionStore is a process-local SessionStore used when Redis is not
// reachable in development, and in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
