package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/eduattend-api/internal/models"
)

// ErrNoSession means the session key is absent: the caller is logged out.
var ErrNoSession = errors.New("session not found")

// Store keeps one role string per session id. Any error other than
// ErrNoSession means the state could not be determined.
type Store interface {
	Put(ctx context.Context, id string, role models.UserRole, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.UserRole, error)
	Delete(ctx context.Context, id string) error
}

const keyPrefix = "session:"

// Key is the storage key for a session id.
func Key(id string) string { return keyPrefix + id }

// RedisStore keeps sessions as plain string keys with a TTL.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, id string, role models.UserRole, ttl time.Duration) error {
	if err := s.client.Set(ctx, Key(id), string(role), ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.UserRole, error) {
	raw, err := s.client.Get(ctx, Key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return models.UserRole(raw), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

type memoryEntry struct {
	role    models.UserRole
	expires time.Time
}

// MemoryStore is the single-process fallback used when Redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, id string, role models.UserRole, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{role: role}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.entries[Key(id)] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[Key(id)]
	if !ok {
		return "", ErrNoSession
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.entries, Key(id))
		return "", ErrNoSession
	}
	return entry.role, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key(id))
	return nil
}
