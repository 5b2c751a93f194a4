package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
)

const (
	storageKey = "cart"
	lockKey    = "cart-lock"

	// lockTTL bounds a cart edit whose holder died; edits take milliseconds.
	lockTTL       = 5 * time.Second
	lockWait      = 2 * time.Second
	lockRetryStep = 10 * time.Millisecond
)

// Summary is what every cart operation answers with.
type Summary struct {
	Items []Item `json:"items"`
	Totals
	// DrawerOpen asks the site to reveal the cart after an add.
	DrawerOpen bool `json:"drawerOpen"`
}

// Service exposes the per-session cart.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Summary, error)
	Add(ctx context.Context, sessionID string, input AddItemInput) (*Summary, error)
	Remove(ctx context.Context, sessionID, itemID string) (*Summary, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Summary, error)
	Clear(ctx context.Context, sessionID string) error
	Pricing() Pricing
}

type service struct {
	store    kv.LockingStore
	keys     kv.Keyspace
	lockWait time.Duration
	ids      IDGenerator
	pricing  Pricing
	ttl      time.Duration
}

// NewService builds a cart service persisting through store. Edits to one
// session's cart are serialized with a lock on the same store.
func NewService(store kv.LockingStore, keys kv.Keyspace, ids IDGenerator, pricing Pricing, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("keyspace required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{
		store:    store,
		keys:     keys,
		lockWait: lockWait,
		ids:      ids,
		pricing:  pricing,
		ttl:      ttl,
	}, nil
}

func (s *service) Pricing() Pricing {
	return s.pricing
}

func (s *service) Get(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.summarize(c, false), nil
}

func (s *service) Add(ctx context.Context, sessionID string, input AddItemInput) (*Summary, error) {
	if strings.TrimSpace(input.ItemID) == "" || strings.TrimSpace(input.VariationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item and variation are required")
	}
	if input.BasePrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return s.mutate(ctx, sessionID, true, func(c *Cart) bool {
		c.AddItem(input)
		return true
	})
}

func (s *service) Remove(ctx context.Context, sessionID, itemID string) (*Summary, error) {
	return s.mutate(ctx, sessionID, false, func(c *Cart) bool {
		return c.RemoveItem(itemID)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Summary, error) {
	return s.mutate(ctx, sessionID, false, func(c *Cart) bool {
		return c.UpdateQuantity(itemID, quantity)
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, sessionID, false, func(c *Cart) bool {
		c.Clear()
		return true
	})
	return err
}

// mutate runs load, apply and persist under the session's cart lock so
// overlapping requests from one shopper cannot overwrite each other.
func (s *service) mutate(ctx context.Context, sessionID string, drawerOpen bool, apply func(*Cart) bool) (*Summary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if apply(c) {
		s.persist(ctx, sessionID, c)
	}
	return s.summarize(c, drawerOpen), nil
}

func (s *service) lock(ctx context.Context, sessionID string) (func(), error) {
	key := s.keys.SessionKey(sessionID, lockKey)
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	for {
		token, ok := s.store.Acquire(ctx, key, lockTTL)
		if ok {
			return func() { s.store.Release(context.WithoutCancel(ctx), key, token) }, nil
		}
		retry := time.NewTimer(lockRetryStep)
		select {
		case <-ctx.Done():
			retry.Stop()
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ctx.Err(), "cart update canceled")
		case <-deadline.C:
			retry.Stop()
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "your cart is being updated, try again")
		case <-retry.C:
		}
	}
}

// load never fails on storage problems; an unreadable cart is an empty cart.
func (s *service) load(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	raw, ok := s.store.Get(ctx, s.key(sessionID))
	if !ok || raw == "" {
		return New(nil, s.ids), nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return New(nil, s.ids), nil
	}
	return New(items, s.ids), nil
}

func (s *service) persist(ctx context.Context, sessionID string, c *Cart) {
	payload, err := json.Marshal(c.Items())
	if err != nil {
		return
	}
	s.store.Set(ctx, s.key(sessionID), string(payload), s.ttl)
}

func (s *service) summarize(c *Cart, drawerOpen bool) *Summary {
	return &Summary{
		Items:      c.Items(),
		Totals:     s.pricing.Totals(c),
		DrawerOpen: drawerOpen,
	}
}

func (s *service) key(sessionID string) string {
	return s.keys.SessionKey(sessionID, storageKey)
}
