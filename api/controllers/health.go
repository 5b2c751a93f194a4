package controllers

import (
	"net/http"

	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/ordering-backend/pkg/redis"
)

const envHeader = "X-Ordering-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis. Square credentials are reported but never fail
// readiness; the payment and catalog routes fail closed on their own.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if redisClient == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "redis not configured"))
			return
		}
		if err := redisClient.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}

		square := "configured"
		if cfg.Square.Validate() != nil {
			square = "missing"
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "square": square})
	}
}
