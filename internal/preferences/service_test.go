package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

func testSettings() Settings {
	return Settings{DeliveryFeeCents: 500, DeliveryEstimate: "45-60 min", TTL: time.Hour}
}

func newTestService(t *testing.T) (Service, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	svc, err := NewService(store, kv.PlainKeys{}, testSettings())
	require.NoError(t, err)
	return svc, store
}

func strPtr(v string) *string { return &v }

func TestOrderTypeDefaultsToPickup(t *testing.T) {
	svc, _ := newTestService(t)
	got, err := svc.OrderType(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderTypePickup, got)
}

func TestOrderTypeUnknownStoredValueFallsBack(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.Set(ctx, "session:s1:order-type", "drone", time.Hour)

	got, err := svc.OrderType(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderTypePickup, got)
}

func TestSetOrderType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.SetOrderType(ctx, "s1", " Delivery ")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderTypeDelivery, got)

	stored, err := svc.OrderType(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderTypeDelivery, stored)

	_, err = svc.SetOrderType(ctx, "s1", "curbside")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateAddressMergesPartialPatches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateAddress(ctx, "s1", types.AddressPatch{Street: strPtr("1 Main St"), City: strPtr("Springfield")})
	require.NoError(t, err)
	addr, err := svc.UpdateAddress(ctx, "s1", types.AddressPatch{Zip: strPtr("62701")})
	require.NoError(t, err)

	assert.Equal(t, "1 Main St", addr.Street)
	assert.Equal(t, "Springfield", addr.City)
	assert.Equal(t, "62701", addr.Zip)

	reloaded, err := svc.Address(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, addr, reloaded)
}

func TestPreferencesAreIndependentKeys(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetOrderType(ctx, "s1", "delivery")
	require.NoError(t, err)
	_, err = svc.UpdateAddress(ctx, "s1", types.AddressPatch{Street: strPtr("1 Main St")})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"session:s1:order-type", "session:s1:delivery-address"}, store.Keys())
}

func TestFulfillmentOnlyForDelivery(t *testing.T) {
	svc, _ := newTestService(t)

	pickup := svc.Fulfillment(enums.OrderTypePickup)
	assert.Nil(t, pickup.DeliveryFee)
	assert.Empty(t, pickup.DeliveryEstimate)
	assert.Zero(t, pickup.FeeCents())

	delivery := svc.Fulfillment(enums.OrderTypeDelivery)
	require.NotNil(t, delivery.DeliveryFee)
	assert.Equal(t, int64(500), delivery.FeeCents())
	assert.Equal(t, "45-60 min", delivery.DeliveryEstimate)
}

func TestPreferencesRequireSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.OrderType(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
