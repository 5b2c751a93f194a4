package squarewebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ordering-backend/internal/menu"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

type stubCatalog struct {
	refreshes int
	err       error
}

func (s *stubCatalog) Catalog(_ context.Context, refresh bool) (*menu.Catalog, error) {
	if refresh {
		s.refreshes++
	}
	if s.err != nil {
		return nil, s.err
	}
	return &menu.Catalog{}, nil
}

func TestHandleEventRefreshesOnCatalogUpdate(t *testing.T) {
	catalog := &stubCatalog{}
	svc, err := NewService(catalog, nil)
	require.NoError(t, err)

	require.NoError(t, svc.HandleEvent(context.Background(), &Event{EventID: "evt-1", Type: "catalog.version.updated"}))
	assert.Equal(t, 1, catalog.refreshes)

	require.NoError(t, svc.HandleEvent(context.Background(), &Event{EventID: "evt-2", Type: "payment.updated"}))
	assert.Equal(t, 1, catalog.refreshes, "unrelated events are ignored")
}

func TestHandleEventSurfacesRefreshFailure(t *testing.T) {
	svc, err := NewService(&stubCatalog{err: errors.New("square down")}, nil)
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), &Event{EventID: "evt-1", Type: "catalog.version.updated"})
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	assert.Error(t, svc.HandleEvent(context.Background(), nil))
}

func sign(key, url string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(url + string(body)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event_id":"evt-1","type":"catalog.version.updated"}`)
	url := "https://orders.example.com/api/webhooks/square"
	good := sign("sig-key", url, body)

	assert.True(t, VerifySignature("sig-key", url, body, good))
	assert.False(t, VerifySignature("other-key", url, body, good))
	assert.False(t, VerifySignature("sig-key", url+"/x", body, good))
	assert.False(t, VerifySignature("sig-key", url, append(body, ' '), good))
	assert.False(t, VerifySignature("", url, body, good))
}

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) { return m.values[key], nil }

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestGuardMarksAndForgets(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	guard, err := NewGuard(store, time.Hour, "square-webhook")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Forget(context.Background(), "evt-1"))
	seen, err = guard.CheckAndMark(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = guard.CheckAndMark(context.Background(), "")
	assert.Error(t, err)
}
