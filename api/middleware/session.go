package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/ordering-backend/api/responses"
	pkgAuth "github.com/angelmondragon/ordering-backend/pkg/auth"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// SessionHeader carries the guest session token in both directions.
const SessionHeader = "X-Session-Token"

// Session resolves the guest session from SessionHeader. A missing, expired or
// forged token starts a new session; the token in effect is always echoed back
// so the site can keep it.
func Session(cfg config.SessionConfig, logg *logger.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := strings.TrimSpace(r.Header.Get(SessionHeader))

			sessionID := ""
			if token != "" {
				claims, err := pkgAuth.ParseSessionToken(cfg, token)
				if err == nil {
					sessionID = claims.SessionID()
				} else if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "session.token_rejected")
				}
			}

			if sessionID == "" {
				minted, claims, err := pkgAuth.MintSessionToken(cfg, now(), "")
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeMisconfigured, err, "mint session"))
					return
				}
				token = minted
				sessionID = claims.SessionID()
			}

			w.Header().Set(SessionHeader, token)
			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
