package quote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds quotes until they expire.
type Store interface {
	Save(ctx context.Context, q *Quote, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Quote, error)
}

const quoteKeyPrefix = "quote:"

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{redis: rdb}
}

func (s *RedisStore) Save(ctx context.Context, q *Quote, ttl time.Duration) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, quoteKeyPrefix+q.ID, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Quote, error) {
	raw, err := s.redis.Get(ctx, quoteKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

type MemoryStore struct {
	mu     sync.Mutex
	quotes map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	q       Quote
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, q *Quote, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.quotes {
		if now.After(e.expires) {
			delete(s.quotes, id)
		}
	}
	s.quotes[q.ID] = memoryEntry{q: *q, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.quotes[id]
	if !ok || s.now().After(e.expires) {
		delete(s.quotes, id)
		return nil, ErrQuoteNotFound
	}
	q := e.q
	return &q, nil
}
