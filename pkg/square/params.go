package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
)

const (
	fulfillmentTypePickup    = "PICKUP"
	fulfillmentStateProposed = "PROPOSED"
	scheduleTypeASAP         = "ASAP"
	scheduleTypeScheduled    = "SCHEDULED"
)

// Service charges apply before tax.
const calculationPhaseSubtotal = "SUBTOTAL_PHASE"

// OrderCreateParams describes a pickup-fulfilled order with optional service charges.
type OrderCreateParams struct {
	LocationID     string
	ReferenceID    string
	Currency       string
	IdempotencyKey string
	LineItems      []OrderLineItemParams
	// ServiceCharges keep their order; non-positive amounts are skipped.
	ServiceCharges []ServiceChargeParams
	Pickup         PickupParams
}

// OrderLineItemParams references a catalog variation and its modifiers.
type OrderLineItemParams struct {
	CatalogObjectID string
	Quantity        int
	ModifierIDs     []string
	Note            string
}

// ServiceChargeParams is a named flat charge such as a delivery fee or tip.
type ServiceChargeParams struct {
	Name        string
	AmountCents int64
}

// PickupParams fills the pickup fulfillment. An empty PickupAt means ASAP with PrepTime.
type PickupParams struct {
	RecipientName  string
	RecipientPhone string
	RecipientEmail string
	PickupAt       string
	PrepTime       string
	Note           string
}

func (p OrderCreateParams) toSquareRequest(idempotencyKey string) *sq.CreateOrderRequest {
	order := &sq.Order{
		LocationID: p.LocationID,
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}

	order.LineItems = make([]*sq.OrderLineItem, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		order.LineItems = append(order.LineItems, item.toSquare())
	}

	for _, charge := range p.ServiceCharges {
		if charge.AmountCents <= 0 {
			continue
		}
		phase := sq.OrderServiceChargeCalculationPhase(calculationPhaseSubtotal)
		order.ServiceCharges = append(order.ServiceCharges, &sq.OrderServiceCharge{
			Name:             ptrString(charge.Name),
			AmountMoney:      moneyPtr(charge.AmountCents, p.Currency),
			CalculationPhase: &phase,
		})
	}

	order.Fulfillments = []*sq.Fulfillment{p.Pickup.toSquare()}

	return &sq.CreateOrderRequest{
		Order:          order,
		IdempotencyKey: ptrString(idempotencyKey),
	}
}

func (i OrderLineItemParams) toSquare() *sq.OrderLineItem {
	quantity := i.Quantity
	if quantity < 1 {
		quantity = 1
	}
	line := &sq.OrderLineItem{
		Quantity:        strconv.Itoa(quantity),
		CatalogObjectID: ptrString(strings.TrimSpace(i.CatalogObjectID)),
	}
	for _, id := range i.ModifierIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			line.Modifiers = append(line.Modifiers, &sq.OrderLineItemModifier{
				CatalogObjectID: ptrString(trimmed),
			})
		}
	}
	if trimmed := strings.TrimSpace(i.Note); trimmed != "" {
		line.Note = ptrString(trimmed)
	}
	return line
}

func (p PickupParams) toSquare() *sq.Fulfillment {
	fulfillmentType := sq.FulfillmentType(fulfillmentTypePickup)
	state := sq.FulfillmentState(fulfillmentStateProposed)

	details := &sq.FulfillmentPickupDetails{}
	recipient := &sq.FulfillmentRecipient{}
	hasRecipient := false
	if trimmed := strings.TrimSpace(p.RecipientName); trimmed != "" {
		recipient.DisplayName = ptrString(trimmed)
		hasRecipient = true
	}
	if trimmed := strings.TrimSpace(p.RecipientPhone); trimmed != "" {
		recipient.PhoneNumber = ptrString(trimmed)
		hasRecipient = true
	}
	if trimmed := strings.TrimSpace(p.RecipientEmail); trimmed != "" {
		recipient.EmailAddress = ptrString(trimmed)
		hasRecipient = true
	}
	if hasRecipient {
		details.Recipient = recipient
	}

	if pickupAt := strings.TrimSpace(p.PickupAt); pickupAt != "" {
		schedule := sq.FulfillmentPickupDetailsScheduleType(scheduleTypeScheduled)
		details.ScheduleType = &schedule
		details.PickupAt = ptrString(pickupAt)
	} else {
		schedule := sq.FulfillmentPickupDetailsScheduleType(scheduleTypeASAP)
		details.ScheduleType = &schedule
		details.PrepTimeDuration = ptrString(p.PrepTime)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		details.Note = ptrString(trimmed)
	}

	return &sq.Fulfillment{
		Type:          &fulfillmentType,
		State:         &state,
		PickupDetails: details,
	}
}

// PaymentCreateParams encapsulates the inputs for a Square payment.
type PaymentCreateParams struct {
	AmountCents    int64
	Currency       string
	LocationID     string
	OrderID        string
	SourceID       string
	BuyerEmail     string
	IdempotencyKey string
	Note           string
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		LocationID:     ptrString(p.LocationID),
		OrderID:        ptrString(p.OrderID),
		SourceID:       p.SourceID,
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.BuyerEmail); trimmed != "" {
		req.BuyerEmailAddress = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
