package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/menu"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/internal/preferences"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

var eastern = time.FixedZone("EDT", -4*60*60)

type fakeCreator struct {
	requests []orders.CreateOrderRequest
	err      error
}

func (f *fakeCreator) Create(_ context.Context, req orders.CreateOrderRequest) (*orders.CreateOrderResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &orders.CreateOrderResult{
		OrderID:            "ORDERabc123",
		PaymentID:          "PAY1",
		ConfirmationNumber: "ABC123",
		ChargedCents:       9999,
	}, nil
}

type harness struct {
	svc     Service
	cart    cart.Service
	prefs   preferences.Service
	store   *kv.Memory
	creator *fakeCreator
}

func testSettings() Settings {
	return Settings{
		DefaultTipPercent: 20,
		TipPresets:        []int{15, 18, 20, 25},
		PrepTime:          20 * time.Minute,
		SlotInterval:      15 * time.Minute,
		OpenHour:          11,
		CloseHour:         21,
		Location:          eastern,
		ConfirmationTTL:   time.Hour,
		LockTTL:           time.Minute,
	}
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	store := kv.NewMemory()
	cartSvc, err := cart.NewService(store, kv.PlainKeys{}, cart.NewSequence(now), cart.Pricing{
		TaxRate:      decimal.RequireFromString("0.06"),
		MinimumCents: 1500,
	}, time.Hour)
	require.NoError(t, err)
	prefs, err := preferences.NewService(store, kv.PlainKeys{}, preferences.Settings{
		DeliveryFeeCents: 500,
		DeliveryEstimate: "45-60 min",
		TTL:              time.Hour,
	})
	require.NoError(t, err)
	creator := &fakeCreator{}
	svc, err := NewService(Deps{
		Cart:        cartSvc,
		Preferences: prefs,
		Orders:      creator,
		Store:       store,
		Locker:      store,
		Keys:        kv.PlainKeys{},
		Logger:      logger.New(logger.Options{ServiceName: "checkout-test"}),
		Now:         func() time.Time { return now },
	}, testSettings())
	require.NoError(t, err)
	return &harness{svc: svc, cart: cartSvc, prefs: prefs, store: store, creator: creator}
}

func noon() time.Time {
	return time.Date(2026, 10, 15, 12, 7, 0, 0, eastern)
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func (h *harness) add(t *testing.T, price int64, qty int, mods ...menu.SelectedModifier) {
	t.Helper()
	_, err := h.cart.Add(context.Background(), "s1", cart.AddItemInput{
		ItemID:       "ITEM",
		VariationID:  "VAR",
		Name:         "Brisket Plate",
		BasePrice:    price,
		Quantity:     qty,
		Modifiers:    mods,
		Instructions: "sauce on the side",
	})
	require.NoError(t, err)
}

func (h *harness) deliverTo(t *testing.T, addr types.AddressPatch) {
	t.Helper()
	ctx := context.Background()
	_, err := h.prefs.SetOrderType(ctx, "s1", "delivery")
	require.NoError(t, err)
	_, err = h.prefs.UpdateAddress(ctx, "s1", addr)
	require.NoError(t, err)
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Customer:   orders.Customer{Name: "Ana", Phone: "555-0100", Email: "ana@example.com"},
		SourceID:   "cnon:card-ok",
		PickupTime: "asap",
	}
}

func fullAddress() types.AddressPatch {
	return types.AddressPatch{Street: strPtr("1 Main St"), City: strPtr("Springfield"), State: strPtr("IL"), Zip: strPtr("62701")}
}

func TestQuotePickupScenario(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)

	q, err := h.svc.Quote(context.Background(), "s1", TipSelection{CustomCents: int64Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(2800), q.Subtotal)
	assert.Equal(t, int64(168), q.Tax)
	assert.Equal(t, int64(2968), q.Total)
	assert.Nil(t, q.DeliveryFee)
	assert.Empty(t, q.DeliveryEstimate)
}

func TestQuoteDeliveryScenario(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)
	h.deliverTo(t, fullAddress())

	q, err := h.svc.Quote(context.Background(), "s1", TipSelection{CustomCents: int64Ptr(0)})
	require.NoError(t, err)
	require.NotNil(t, q.DeliveryFee)
	assert.Equal(t, int64(500), *q.DeliveryFee)
	assert.Equal(t, "45-60 min", q.DeliveryEstimate)
	assert.Equal(t, int64(168), q.Tax, "no tax on the delivery fee")
	assert.Equal(t, int64(3468), q.Total)
}

func TestQuoteDefaultTipIsTwentyPercent(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2600, 2)

	q, err := h.svc.Quote(context.Background(), "s1", TipSelection{})
	require.NoError(t, err)
	assert.Equal(t, int64(5200), q.Subtotal)
	assert.Equal(t, int64(1040), q.Tip)
	require.NotNil(t, q.TipPercent)
	assert.Equal(t, 20, *q.TipPercent)
	assert.Equal(t, int64(5200+312+1040), q.Total)
}

func TestQuoteTipSelections(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2000, 1)
	ctx := context.Background()

	q, err := h.svc.Quote(ctx, "s1", TipSelection{Percent: intPtr(15)})
	require.NoError(t, err)
	assert.Equal(t, int64(300), q.Tip)

	q, err = h.svc.Quote(ctx, "s1", TipSelection{Percent: intPtr(0)})
	require.NoError(t, err)
	assert.Zero(t, q.Tip)

	q, err = h.svc.Quote(ctx, "s1", TipSelection{Percent: intPtr(25), CustomCents: int64Ptr(450)})
	require.NoError(t, err)
	assert.Equal(t, int64(450), q.Tip)
	assert.Nil(t, q.TipPercent)

	_, err = h.svc.Quote(ctx, "s1", TipSelection{Percent: intPtr(33)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = h.svc.Quote(ctx, "s1", TipSelection{CustomCents: int64Ptr(-5)})
	require.Error(t, err)
}

func TestSubmitEmptyNameMakesNoCall(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)

	req := validSubmit()
	req.Customer.Name = "   "
	_, err := h.svc.Submit(context.Background(), "s1", req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]any{"missing": []string{"name"}}, typed.Details())
	assert.Empty(t, h.creator.requests)
}

func TestSubmitBlockedBelowMinimum(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 1499, 1)

	_, err := h.svc.Submit(context.Background(), "s1", validSubmit())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, h.creator.requests)
}

func TestSubmitEmptyCart(t *testing.T) {
	h := newHarness(t, noon())
	_, err := h.svc.Submit(context.Background(), "s1", validSubmit())
	require.Error(t, err)
	assert.Empty(t, h.creator.requests)
}

func TestSubmitRequiresPaymentSource(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)

	req := validSubmit()
	req.SourceID = ""
	_, err := h.svc.Submit(context.Background(), "s1", req)
	require.Error(t, err)
	assert.Empty(t, h.creator.requests)
}

func TestSubmitDeliveryRequiresAddress(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)
	h.deliverTo(t, types.AddressPatch{Street: strPtr("1 Main St")})

	_, err := h.svc.Submit(context.Background(), "s1", validSubmit())
	require.Error(t, err)
	assert.Equal(t, map[string]any{"missing": []string{"city", "state", "zip"}}, pkgerrors.As(err).Details())
	assert.Empty(t, h.creator.requests)
}

func TestSubmitSuccess(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2600, 2, menu.SelectedModifier{ListID: "L", ModifierID: "MOD1", Price: 0})
	h.deliverTo(t, fullAddress())
	ctx := context.Background()

	conf, err := h.svc.Submit(ctx, "s1", validSubmit())
	require.NoError(t, err)

	require.Len(t, h.creator.requests, 1)
	sent := h.creator.requests[0]
	assert.Equal(t, "delivery", sent.OrderType)
	assert.Equal(t, int64(500), sent.DeliveryFee)
	assert.Equal(t, int64(1040), sent.Tip)
	assert.Equal(t, "asap", sent.PickupTime)
	assert.Equal(t, "cnon:card-ok", sent.SourceID)
	assert.Equal(t, "s1", sent.ReferenceID)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "VAR", sent.Items[0].VariationID)
	assert.Equal(t, 2, sent.Items[0].Quantity)
	assert.Equal(t, []orders.ModifierRef{{ModifierID: "MOD1"}}, sent.Items[0].Modifiers)
	assert.Equal(t, "sauce on the side", sent.Items[0].Note)
	require.NotNil(t, sent.DeliveryAddress)

	assert.Equal(t, "ABC123", conf.ConfirmationNumber)
	assert.Equal(t, int64(5200+312+500+1040), conf.Total)
	assert.Equal(t, int64(9999), conf.ChargedTotal)
	assert.Equal(t, "45-60 min", conf.DeliveryEstimate)
	assert.Equal(t, "ASAP (about 20 min)", conf.PickupLabel)

	summary, err := h.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, summary.Items, "cart cleared after success")

	stored, err := h.svc.Confirmation(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, conf.OrderID, stored.OrderID)

	_, err = h.svc.Confirmation(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSubmitPickupHasNoDeliveryFields(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)

	req := validSubmit()
	req.Tip = TipSelection{CustomCents: int64Ptr(0)}
	conf, err := h.svc.Submit(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Nil(t, conf.DeliveryFee)
	assert.Nil(t, conf.DeliveryAddress)
	assert.Empty(t, conf.DeliveryEstimate)
	assert.Equal(t, int64(2968), conf.Total)
	assert.Zero(t, h.creator.requests[0].DeliveryFee)
}

func TestSubmitFailureLeavesCart(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)
	h.creator.err = pkgerrors.New(pkgerrors.CodeUpstream, "payment failed")
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, "s1", validSubmit())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUpstream, pkgerrors.As(err).Code())

	summary, err := h.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
	_, err = h.svc.Confirmation(ctx, "s1")
	assert.Error(t, err)

	// The lock is released so the shopper can retry.
	h.creator.err = nil
	_, err = h.svc.Submit(ctx, "s1", validSubmit())
	require.NoError(t, err)
}

func TestSubmitInFlightIsRejected(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)
	ctx := context.Background()
	_, held := h.store.Acquire(ctx, "session:s1:checkout-lock", time.Minute)
	require.True(t, held)

	_, err := h.svc.Submit(ctx, "s1", validSubmit())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Empty(t, h.creator.requests)
}

func TestSubmitTakesLockBeforeReadingCart(t *testing.T) {
	h := newHarness(t, noon())
	ctx := context.Background()
	_, held := h.store.Acquire(ctx, "session:s1:checkout-lock", time.Minute)
	require.True(t, held)

	// An empty cart while another submit runs means that submit is about to
	// clear it, so the answer is the in-flight conflict, not an empty cart.
	_, err := h.svc.Submit(ctx, "s1", validSubmit())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestSubmitScheduledPickup(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)

	req := validSubmit()
	req.PickupTime = "2026-10-15T18:30:00-04:00"
	conf, err := h.svc.Submit(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15T18:30:00-04:00", h.creator.requests[0].PickupTime)
	assert.Equal(t, "6:30 PM", conf.PickupLabel)

	h.add(t, 2800, 1)
	req.PickupTime = "2026-10-15T12:10:00-04:00"
	_, err = h.svc.Submit(context.Background(), "s1", req)
	require.Error(t, err)
	assert.Len(t, h.creator.requests, 1)
}

func TestSubmitPropagatesCreatorError(t *testing.T) {
	h := newHarness(t, noon())
	h.add(t, 2800, 1)
	sentinel := errors.New("boom")
	h.creator.err = sentinel

	_, err := h.svc.Submit(context.Background(), "s1", validSubmit())
	assert.ErrorIs(t, err, sentinel)
}
