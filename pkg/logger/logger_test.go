package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithSessionID(ctx, "sess-1")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\":\"req-123\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"session_id\":\"sess-1\"")) {
		t.Fatalf("expected session_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: "debug", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected no stack when warn stack disabled")
	}
}

func TestZeroOptionsLogAtInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf})

	log.Debug(context.Background(), "cart.loaded")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered by default, got %s", buf.String())
	}
	log.Info(context.Background(), "cart.saved")
	if !strings.Contains(buf.String(), `"level":"info"`) {
		t.Fatalf("expected info entry, got %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}

func TestWithFieldsDoesNotLeakIntoParentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	parent := context.Background()
	child := log.WithOrderID(parent, "ORD-1")
	log.Info(parent, "parent")
	if bytes.Contains(buf.Bytes(), []byte("ORD-1")) {
		t.Fatalf("parent context should not carry child fields: %s", buf.String())
	}
	log.Info(child, "child")
	if !bytes.Contains(buf.Bytes(), []byte("\"order_id\":\"ORD-1\"")) {
		t.Fatalf("expected order_id on child entry: %s", buf.String())
	}
}

func TestWithFieldsRedactsGuestContactData(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Format: FormatJSON, Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{
		"buyer_email": "ana@example.com",
		"source_id":   "cnon:card-ok",
		"order_id":    "ORD-2",
	})
	log.Info(log.WithField(ctx, "recipient_phone", "555-0100"), "order placed")

	out := buf.String()
	for _, leaked := range []string{"ana@example.com", "cnon:card-ok", "555-0100"} {
		if bytes.Contains(buf.Bytes(), []byte(leaked)) {
			t.Fatalf("expected %q to be redacted: %s", leaked, out)
		}
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"order_id\":\"ORD-2\"")) {
		t.Fatalf("expected safe field to pass through: %s", out)
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("Customer_Email", "x@y.z"); got != "[REDACTED]" {
		t.Fatalf("expected case-insensitive redaction, got %v", got)
	}
	if got := Redact("quantity", 2); got != 2 {
		t.Fatalf("expected safe value untouched, got %v", got)
	}
}
