// Package catalog builds the site's menu from the upstream catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/ordering-backend/internal/menu"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/square"
)

const (
	cacheName = "menu"
	// Upper bound on pages per fetch; a catalog larger than this is a misread cursor.
	maxPages = 200
)

// Source pages through the upstream catalog.
type Source interface {
	SearchCatalog(ctx context.Context, params square.CatalogSearchParams) (*square.CatalogPage, error)
}

type cacheRecorder interface {
	IncCatalogCache(hit bool)
}

// Service serves the reshaped menu.
type Service interface {
	// Catalog returns the cached menu while it is fresh; refresh forces a fetch.
	Catalog(ctx context.Context, refresh bool) (*menu.Catalog, error)
}

// Deps groups the collaborators of the catalog service. A nil Source makes
// every fetch fail with CodeMisconfigured.
type Deps struct {
	Source     Source
	Store      kv.Store
	Keys       kv.Keyspace
	Categories CategoryTable
	Metrics    cacheRecorder
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	source     Source
	store      kv.Store
	keys       kv.Keyspace
	categories CategoryTable
	ttl        time.Duration
	metrics    cacheRecorder
	logg       *logger.Logger
	now        func() time.Time
	group      singleflight.Group
}

// NewService builds the catalog service caching for ttl.
func NewService(deps Deps, ttl time.Duration) (Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if deps.Keys == nil {
		return nil, fmt.Errorf("keyspace required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	categories := deps.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		source:     deps.Source,
		store:      deps.Store,
		keys:       deps.Keys,
		categories: categories,
		ttl:        ttl,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		now:        now,
	}, nil
}

func (s *service) Catalog(ctx context.Context, refresh bool) (*menu.Catalog, error) {
	if !refresh {
		if cached, ok := s.cached(ctx); ok {
			s.recordCache(true)
			return cached, nil
		}
	}
	s.recordCache(false)

	// Concurrent misses share one upstream fetch, detached from any single caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	result, err, _ := s.group.Do(cacheName, func() (any, error) {
		return s.fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*menu.Catalog), nil
}

func (s *service) cached(ctx context.Context) (*menu.Catalog, bool) {
	raw, ok := s.store.Get(ctx, s.keys.CatalogKey(cacheName))
	if !ok {
		return nil, false
	}
	var catalog menu.Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(catalog.FetchedAt) >= s.ttl {
		return nil, false
	}
	return &catalog, true
}

func (s *service) fetch(ctx context.Context) (*menu.Catalog, error) {
	if s.source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMisconfigured, "catalog source is not configured")
	}

	var objects []square.CatalogObject
	cursor := ""
	seen := map[string]struct{}{}
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, pkgerrors.New(pkgerrors.CodeUpstream, "catalog pagination did not terminate")
		}
		resp, err := s.source.SearchCatalog(ctx, square.CatalogSearchParams{
			ObjectTypes: square.MenuObjectTypes,
			Cursor:      cursor,
		})
		if err != nil {
			s.logg.Error(ctx, "catalog fetch failed", err)
			return nil, err
		}
		if resp == nil {
			break
		}
		objects = append(objects, resp.Objects...)
		if resp.Cursor == "" {
			break
		}
		if _, dup := seen[resp.Cursor]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeUpstream, "catalog cursor repeated")
		}
		seen[resp.Cursor] = struct{}{}
		cursor = resp.Cursor
	}

	catalog := reshape(objects, s.categories, s.now().UTC())
	if payload, err := json.Marshal(catalog); err == nil {
		s.store.Set(ctx, s.keys.CatalogKey(cacheName), string(payload), s.ttl)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"objects": len(objects),
		"items":   len(catalog.MenuItems),
	}), "catalog refreshed")
	return catalog, nil
}

func (s *service) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.IncCatalogCache(hit)
	}
}
