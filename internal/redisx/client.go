package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Store is the small key/value surface the services need on top of Redis.
type Store struct{ RDB *redis.Client }

// GetJSON decodes the value at key into dst. A missing key reports false
// with a nil error.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := s.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, key, b, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.RDB.Del(ctx, key).Err()
}

// MarkSeen records key once; it reports false when the key already existed.
func (s *Store) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.RDB.SetNX(ctx, key, "1", ttl).Result()
}
