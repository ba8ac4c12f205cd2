package redisad

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is a KeyValueStore on Redis. Keys never expire.
type Store struct{ c *redis.Client }

func NewStore(c *redis.Client) *Store { return &Store{c: c} }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.c.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
