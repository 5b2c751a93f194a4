package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/ordering-backend/api/responses"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/ordering-backend/pkg/redis"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	orderReplayTTL       = 24 * time.Hour
	inFlightTTL          = 2 * time.Minute
	maxIdempotencyKeyLen = 255
	maxReplayBodyBytes   = 1 << 20
)

// orderRoutes are the routes that place an order and therefore honor an
// Idempotency-Key, keyed by "METHOD pattern".
var orderRoutes = map[string]time.Duration{
	http.MethodPost + " /api/checkout":     orderReplayTTL,
	http.MethodPost + " /api/create-order": orderReplayTTL,
}

// ReplayStore is the Redis surface the idempotency middleware needs.
type ReplayStore interface {
	pkgredis.IdempotencyStore
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// replayRecord is either an in-flight marker or a finished response.
type replayRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
	BodyHash    string `json:"bodyHash"`
}

// Idempotency lets a shopper's browser safely resend an order submission.
// The first request under a key reserves it; a repeat while it runs gets 409,
// a repeat after success replays the stored response, and a failure releases
// the key so a declined card can be retried. Requests without the header run
// normally.
func Idempotency(store ReplayStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKeyLen {
				writeRouteError(ctx, logg, w, r, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is too long").
					WithDetails(map[string]any{"maxLength": maxIdempotencyKeyLen}))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReplayBodyBytes))
			if err != nil {
				writeRouteError(ctx, logg, w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			bodyHash := hashBody(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			reserved, err := reserve(ctx, store, key, bodyHash)
			if err != nil {
				// Upstream idempotency keys still guard the charge.
				logWarn(ctx, logg, "idempotency.unavailable", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				replayExisting(ctx, logg, store, w, r, key, bodyHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusOrOK()
			if status < 200 || status >= 300 {
				if err := store.Del(ctx, key); err != nil {
					logWarn(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}
			finished, err := json.Marshal(replayRecord{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				BodyHash:    bodyHash,
			})
			if err != nil {
				logWarn(ctx, logg, "idempotency.encode_failed", err)
				return
			}
			if err := store.Set(ctx, key, string(finished), ttl); err != nil {
				logWarn(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

func reserve(ctx context.Context, store ReplayStore, key, bodyHash string) (bool, error) {
	pending, err := json.Marshal(replayRecord{Pending: true, BodyHash: bodyHash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), inFlightTTL)
}

func replayExisting(ctx context.Context, logg *logger.Logger, store ReplayStore, w http.ResponseWriter, r *http.Request, key, bodyHash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && stored == "") {
		writeRouteError(ctx, logg, w, r, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress, try again"))
		return
	}
	if err != nil {
		writeRouteError(ctx, logg, w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}

	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		writeRouteError(ctx, logg, w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.BodyHash != bodyHash:
		writeRouteError(ctx, logg, w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.Pending:
		writeRouteError(ctx, logg, w, r, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress, try again"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

// writeRouteError keeps the bare body contract of the function routes.
func writeRouteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if isFunctionRoute(r.URL.Path) {
		responses.WriteFunctionError(ctx, logg, w, err)
		return
	}
	responses.WriteError(ctx, logg, w, err)
}

// replayScope ties a key to the guest session and route so two shoppers
// cannot collide on the same client-generated key.
func replayScope(r *http.Request) string {
	return strings.Join([]string{SessionIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	ttl, ok := orderRoutes[method+" "+strings.TrimSuffix(pattern, "/")]
	return ttl, ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logWarn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), msg)
}
