package kv

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

type redisBackend interface {
	Get(context.Context, string) (string, error)
	GetDel(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
}

// Redis adapts the platform redis client to the best-effort Store contract.
type Redis struct {
	backend redisBackend
	logger  *logger.Logger
}

// NewRedis wraps the provided client; logg may be nil.
func NewRedis(backend redisBackend, logg *logger.Logger) *Redis {
	return &Redis{backend: backend, logger: logg}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	if r == nil || r.backend == nil {
		return "", false
	}
	value, err := r.backend.Get(ctx, key)
	if err != nil {
		r.warn(ctx, "kv.get_failed", key, err)
		return "", false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if r == nil || r.backend == nil {
		return
	}
	if err := r.backend.Set(ctx, key, value, ttl); err != nil {
		r.warn(ctx, "kv.set_failed", key, err)
	}
}

func (r *Redis) Take(ctx context.Context, key string) (string, bool) {
	if r == nil || r.backend == nil {
		return "", false
	}
	value, err := r.backend.GetDel(ctx, key)
	if err != nil {
		r.warn(ctx, "kv.take_failed", key, err)
		return "", false
	}
	return value, true
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if r == nil || r.backend == nil {
		return
	}
	if err := r.backend.Del(ctx, key); err != nil {
		r.warn(ctx, "kv.delete_failed", key, err)
	}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if r == nil || r.backend == nil {
		return "", true
	}
	token := uuid.NewString()
	ok, err := r.backend.SetNX(ctx, key, token, ttl)
	if err != nil {
		r.warn(ctx, "kv.lock_failed", key, err)
		return "", true
	}
	if !ok {
		return "", false
	}
	return token, true
}

func (r *Redis) Release(ctx context.Context, key, token string) {
	if r == nil || r.backend == nil || token == "" {
		return
	}
	holder, err := r.backend.Get(ctx, key)
	if err != nil {
		r.warn(ctx, "kv.unlock_failed", key, err)
		return
	}
	if holder != token {
		return
	}
	r.Delete(ctx, key)
}

func (r *Redis) warn(ctx context.Context, msg, key string, err error) {
	// a miss is not worth a log line
	if errors.Is(err, redis.Nil) || r.logger == nil {
		return
	}
	ctx = r.logger.WithFields(ctx, map[string]any{"key": key, "error": err.Error()})
	r.logger.Warn(ctx, msg)
}
