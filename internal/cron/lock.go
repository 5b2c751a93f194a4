package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock gives one instance the right to run a tick.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a lease on a single key holding this warmer's token. It lapses
// after ttl if the holder dies mid-tick, so ttl should cover one tick.
type RedisLock struct {
	store leaseStore
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(store leaseStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("lease store required")
	case key == "":
		return nil, errors.New("lease key required")
	case ttl <= 0:
		return nil, fmt.Errorf("lease ttl must be positive, got %s", ttl)
	}
	return &RedisLock{store: store, key: key, ttl: ttl, token: uuid.NewString()}, nil
}

// Acquire takes the lease, or reports true if this warmer already holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	taken, err := l.store.SetNX(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("take lease %s: %w", l.key, err)
	}
	if taken {
		return true, nil
	}
	return l.holds(ctx)
}

// Release drops the lease if this warmer still holds it. A lease that lapsed
// and was taken by another warmer is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	mine, err := l.holds(ctx)
	if err != nil || !mine {
		return err
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("drop lease %s: %w", l.key, err)
	}
	return nil
}

func (l *RedisLock) holds(ctx context.Context) (bool, error) {
	holder, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("read lease %s: %w", l.key, err)
	}
	return holder == l.token, nil
}
