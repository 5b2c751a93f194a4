package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// CatalogRefreshJob re-fetches the menu upstream so the shared cache never
// goes cold between customer requests.
type CatalogRefreshJob struct {
	catalog catalog.Service
	logg    *logger.Logger
}

func NewCatalogRefreshJob(svc catalog.Service, logg *logger.Logger) (*CatalogRefreshJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &CatalogRefreshJob{catalog: svc, logg: logg}, nil
}

func (j *CatalogRefreshJob) Name() string { return "catalog_refresh" }

func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	menu, err := j.catalog.Catalog(ctx, true)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	if j.logg != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"items":          len(menu.MenuItems),
			"modifier_lists": len(menu.ModifierLists),
		}), "catalog refreshed")
	}
	return nil
}
