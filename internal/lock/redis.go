package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// redisStore is the subset of cache.RedisClient used for locking.
type redisStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLocker is a Locker shared by every API instance pointing at the same
// Redis. The key expires after TTL so a crashed holder cannot wedge a phone
// number forever.
type RedisLocker struct {
	store  redisStore
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(store redisStore, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{store: store, prefix: "agrolink:lock:", ttl: ttl, retry: 50 * time.Millisecond}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.store.SetNX(ctx, k, token, r.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(k, token) })
	}, nil
}

func (r *RedisLocker) release(k, token string) {
	// The request context may already be cancelled here.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ok, err := r.store.CompareAndDelete(ctx, k, token)
	if err != nil {
		log.Warn().Err(err).Str("key", k).Msg("Failed to release lock")
		return
	}
	if !ok {
		log.Warn().Str("key", k).Msg("Lock expired before release")
	}
}
