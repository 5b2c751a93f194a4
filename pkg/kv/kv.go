// Package kv provides the best-effort key/value capability that carts,
// preferences, confirmations and the catalog cache persist through.
//
// Store methods never return errors: a failed read looks like an absent key
// and a failed write is logged and dropped, so the session keeps working
// without persistence.
package kv

import (
	"context"
	"strings"
	"time"
)

// Store is the get/set contract used by the ordering components.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	// Take returns the value and removes it so it is observed at most once.
	Take(ctx context.Context, key string) (string, bool)
	Delete(ctx context.Context, key string)
}

// Locker guards a short critical section such as a cart edit or an
// in-flight checkout. Acquire hands back the token the holder releases with
// and reports false only when another holder owns the key. Backend failures
// degrade to granting the lock with an empty token, which Release ignores.
// Release drops the key only while it still holds the caller's token, so a
// lease that lapsed and was re-taken is left to its new owner.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool)
	Release(ctx context.Context, key, token string)
}

// LockingStore is a Store whose keys can be guarded by the same backend.
type LockingStore interface {
	Store
	Locker
}

// Keyspace builds the namespaced keys the components write under.
type Keyspace interface {
	SessionKey(sessionID string, parts ...string) string
	CatalogKey(name string) string
}

// PlainKeys is a Keyspace without a backend namespace, used with Memory.
type PlainKeys struct{}

func (PlainKeys) SessionKey(sessionID string, parts ...string) string {
	return join(append([]string{"session", sessionID}, parts...))
}

func (PlainKeys) CatalogKey(name string) string {
	return join([]string{"catalog", name})
}

func join(parts []string) string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return strings.Join(clean, ":")
}
