package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/ordering-backend/api/responses"
	catalogsvc "github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// Catalog serves the reshaped menu from cache. The body is the bare catalog
// object and a failure is always a 500 with {"error": ...}. Callers cannot
// force an upstream fetch; the warmer and the catalog webhook refresh it.
func Catalog(svc catalogsvc.Service, maxAge time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog, err := svc.Catalog(r.Context(), false)
		if err != nil {
			w.Header().Set("Cache-Control", "no-store")
			responses.WriteFunctionErrorStatus(r.Context(), logg, w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
		responses.WriteJSON(w, http.StatusOK, catalog)
	}
}
