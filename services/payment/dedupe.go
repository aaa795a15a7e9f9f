package payment

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SeenStore remembers webhook deliveries so obvious duplicates are acknowledged
// without touching the stores. It is a fast path only; storage guards decide.
type SeenStore interface {
	// MarkSeen records key and reports whether this was its first sighting.
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget removes key so a failed delivery can be processed again.
	Forget(ctx context.Context, key string) error
}

// RedisSeenStore implements SeenStore with SETNX.
type RedisSeenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSeenStore(client *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{client: client, prefix: "webhook:seen:"}
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
}

func (s *RedisSeenStore) Forget(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// MemorySeenStore implements SeenStore in process memory.
type MemorySeenStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySeenStore) MarkSeen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)

	if len(s.expires) > 10000 {
		for k, exp := range s.expires {
			if !now.Before(exp) {
				delete(s.expires, k)
			}
		}
	}
	return true, nil
}

func (s *MemorySeenStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}
