package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/ordering-backend/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret: "secret",
		Issuer: "ordering-backend",
		TTL:    time.Hour,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now().UTC()

	token, minted, err := MintSessionToken(cfg, now, "")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if minted.SessionID() == "" {
		t.Fatalf("expected generated session id")
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.SessionID() != minted.SessionID() {
		t.Fatalf("expected session id %s, got %s", minted.SessionID(), claims.SessionID())
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.TTL)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestMintSessionTokenKeepsProvidedID(t *testing.T) {
	_, claims, err := MintSessionToken(testSessionConfig(), time.Now(), "sess-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if claims.SessionID() != "sess-42" {
		t.Fatalf("expected provided id, got %s", claims.SessionID())
	}
}

func TestParseSessionTokenInvalidSignature(t *testing.T) {
	cfg := testSessionConfig()
	token, _, err := MintSessionToken(cfg, time.Now(), "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	cfg := testSessionConfig()
	token, _, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestMintSessionTokenRequiresConfig(t *testing.T) {
	if _, _, err := MintSessionToken(config.SessionConfig{}, time.Now(), ""); err == nil {
		t.Fatalf("expected error for empty config")
	}
}
