package cart

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix = "cart:"
	cartTTL        = 14 * 24 * time.Hour
)

// Store loads and saves carts by session ID.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps carts in Redis with a sliding TTL. A corrupt document is
// logged and replaced with a fresh cart; shoppers never see a decode error.
type RedisStore struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisStore(client *redis.Client, log *logrus.Logger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	c, err := Decode(data)
	if err != nil {
		s.log.WithField("session_id", sessionID).Warn("Corrupt cart document, starting fresh")
		return New(), nil
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+sessionID, data, cartTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, redisKeyPrefix+sessionID).Err()
}

// MemoryStore is a process-local Store for tests and Redis-less local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return New(), nil
	}
	c, err := Decode(data)
	if err != nil {
		return New(), nil
	}
	return c, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[sessionID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
