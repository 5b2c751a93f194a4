package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/ordering-backend/pkg/auth"
	"github.com/angelmondragon/ordering-backend/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "test-secret", Issuer: "ordering-test", TTL: time.Hour}
}

func captureSession(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionMintsWhenAbsent(t *testing.T) {
	var seen string
	handler := Session(testSessionConfig(), nil, nil)(captureSession(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	if seen == "" {
		t.Fatalf("expected a session id in context")
	}
	token := rec.Header().Get(SessionHeader)
	if token == "" {
		t.Fatalf("expected minted token in response header")
	}
	claims, err := pkgAuth.ParseSessionToken(testSessionConfig(), token)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.SessionID() != seen {
		t.Fatalf("token session %q does not match context %q", claims.SessionID(), seen)
	}
}

func TestSessionKeepsValidToken(t *testing.T) {
	cfg := testSessionConfig()
	token, _, err := pkgAuth.MintSessionToken(cfg, time.Now(), "guest-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	var seen string
	handler := Session(cfg, nil, nil)(captureSession(&seen))
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "guest-42" {
		t.Fatalf("expected guest-42, got %q", seen)
	}
	if rec.Header().Get(SessionHeader) != token {
		t.Fatalf("expected the same token echoed back")
	}
}

func TestSessionReplacesForgedToken(t *testing.T) {
	other := config.SessionConfig{Secret: "someone-else", Issuer: "ordering-test", TTL: time.Hour}
	forged, _, err := pkgAuth.MintSessionToken(other, time.Now(), "victim")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	var seen string
	handler := Session(testSessionConfig(), nil, nil)(captureSession(&seen))
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(SessionHeader, forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" || seen == "victim" {
		t.Fatalf("forged session must be replaced, got %q", seen)
	}
	if rec.Header().Get(SessionHeader) == forged {
		t.Fatalf("forged token must not be echoed")
	}
}

func TestSessionMisconfiguredSecret(t *testing.T) {
	var seen string
	handler := Session(config.SessionConfig{}, nil, nil)(captureSession(&seen))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if seen != "" {
		t.Fatalf("handler must not run")
	}
}
