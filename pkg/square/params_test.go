package square

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreateParamsServiceChargesKeepOrder(t *testing.T) {
	params := OrderCreateParams{
		LocationID: "LOC1",
		Currency:   "usd",
		LineItems: []OrderLineItemParams{
			{CatalogObjectID: "VAR1", Quantity: 2, ModifierIDs: []string{"MOD1", " ", "MOD2"}, Note: " no onions "},
		},
		ServiceCharges: []ServiceChargeParams{
			{Name: "Delivery Fee", AmountCents: 500},
			{Name: "Tip", AmountCents: 300},
			{Name: "Empty", AmountCents: 0},
		},
	}

	req := params.toSquareRequest("key-1")
	require.NotNil(t, req.Order)
	assert.Equal(t, "key-1", *req.IdempotencyKey)
	assert.Equal(t, "LOC1", req.Order.LocationID)

	require.Len(t, req.Order.LineItems, 1)
	line := req.Order.LineItems[0]
	assert.Equal(t, "2", line.Quantity)
	assert.Equal(t, "VAR1", *line.CatalogObjectID)
	assert.Equal(t, "no onions", *line.Note)
	require.Len(t, line.Modifiers, 2)
	assert.Equal(t, "MOD2", *line.Modifiers[1].CatalogObjectID)

	require.Len(t, req.Order.ServiceCharges, 2)
	assert.Equal(t, "Delivery Fee", *req.Order.ServiceCharges[0].Name)
	assert.Equal(t, int64(500), *req.Order.ServiceCharges[0].AmountMoney.Amount)
	assert.Equal(t, "USD", string(*req.Order.ServiceCharges[0].AmountMoney.Currency))
	assert.Equal(t, "Tip", *req.Order.ServiceCharges[1].Name)
	assert.Equal(t, calculationPhaseSubtotal, string(*req.Order.ServiceCharges[1].CalculationPhase))
}

func TestPickupParamsSchedule(t *testing.T) {
	asap := PickupParams{RecipientName: "Ana", PrepTime: "PT20M"}.toSquare()
	require.NotNil(t, asap.PickupDetails)
	assert.Equal(t, fulfillmentTypePickup, string(*asap.Type))
	assert.Equal(t, fulfillmentStateProposed, string(*asap.State))
	assert.Equal(t, scheduleTypeASAP, string(*asap.PickupDetails.ScheduleType))
	assert.Equal(t, "PT20M", *asap.PickupDetails.PrepTimeDuration)
	assert.Nil(t, asap.PickupDetails.PickupAt)
	assert.Equal(t, "Ana", *asap.PickupDetails.Recipient.DisplayName)

	scheduled := PickupParams{PickupAt: "2026-10-15T18:30:00-04:00"}.toSquare()
	assert.Equal(t, scheduleTypeScheduled, string(*scheduled.PickupDetails.ScheduleType))
	assert.Equal(t, "2026-10-15T18:30:00-04:00", *scheduled.PickupDetails.PickupAt)
	assert.Nil(t, scheduled.PickupDetails.Recipient)
}

func TestPaymentCreateParams(t *testing.T) {
	req := PaymentCreateParams{
		AmountCents: 4218,
		OrderID:     "ORDER1",
		LocationID:  "LOC1",
		SourceID:    "cnon:card",
		BuyerEmail:  "ana@example.com",
	}.toSquareRequest("pay-1")

	assert.Equal(t, "pay-1", req.IdempotencyKey)
	assert.Equal(t, "cnon:card", req.SourceID)
	assert.Equal(t, "ORDER1", *req.OrderID)
	assert.Equal(t, int64(4218), *req.AmountMoney.Amount)
	assert.Equal(t, "USD", string(*req.AmountMoney.Currency))
	assert.Equal(t, "ana@example.com", *req.BuyerEmailAddress)
	assert.Nil(t, req.Note)
}

func TestDecodeCatalogJSON(t *testing.T) {
	raw := []byte(`[
		{"type":"ITEM","id":"ITEM1","item_data":{"name":"Burger","categories":[{"id":"CAT1"}],
			"variations":[{"id":"VAR1","item_variation_data":{"name":"Regular","price_money":{"amount":1200,"currency":"USD"}}}],
			"modifier_list_info":[{"modifier_list_id":"ML1"}],"image_ids":["IMG1"]}},
		{"type":"category","id":"CAT1","category_data":{"name":"Mains"}},
		{"type":"MODIFIER_LIST","id":"ML1","modifier_list_data":{"name":"Choose two sides","max_selected_modifiers":2,
			"modifiers":[{"id":"MOD1","modifier_data":{"name":"Fries","price_money":{"amount":0}}}]}},
		{"type":"ITEM","id":"GONE","is_deleted":true},
		{"type":"IMAGE","id":"IMG1","image_data":{"url":"https://img.example/burger.png"}}
	]`)

	objects, err := decodeCatalogJSON(raw)
	require.NoError(t, err)
	require.Len(t, objects, 4)

	item := objects[0]
	require.NotNil(t, item.ItemData)
	assert.Equal(t, "Burger", item.ItemData.Name)
	assert.Equal(t, int64(1200), item.ItemData.Variations[0].ItemVariationData.PriceMoney.Amount)
	assert.Equal(t, "ML1", item.ItemData.ModifierListInfo[0].ModifierListID)

	assert.Equal(t, "CATEGORY", objects[1].Type)
	require.NotNil(t, objects[2].ModifierListData.MaxSelectedModifiers)
	assert.Equal(t, 2, *objects[2].ModifierListData.MaxSelectedModifiers)
	assert.Equal(t, "https://img.example/burger.png", objects[3].ImageData.URL)
}
