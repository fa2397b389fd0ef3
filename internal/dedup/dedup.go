package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 48 * time.Hour

// Store remembers which document revisions were already relayed.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore returns a store keyed under prefix (e.g. "bridge:relay:"). ttl <= 0 means 48h.
func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Claim marks key as seen. It returns false when another delivery already claimed it.
func (s *Store) Claim(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, s.prefix+key, "1", s.ttl).Result()
}

// Release forgets key so a redelivery can be processed again.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}
