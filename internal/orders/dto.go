package orders

import "github.com/angelmondragon/ordering-backend/pkg/types"

// PickupASAP requests the default preparation window instead of a slot.
const PickupASAP = "asap"

// CreateOrderRequest is the inbound create-order body.
type CreateOrderRequest struct {
	Items           []LineItem             `json:"items"`
	Customer        Customer               `json:"customer"`
	Tip             int64                  `json:"tip" validate:"gte=0"`
	DeliveryFee     int64                  `json:"deliveryFee" validate:"gte=0"`
	OrderType       string                 `json:"orderType"`
	SourceID        string                 `json:"sourceId"`
	PickupTime      string                 `json:"pickupTime"`
	DeliveryAddress *types.DeliveryAddress `json:"deliveryAddress,omitempty"`
	// ReferenceID is stamped on the upstream order so staff can trace it back,
	// e.g. to the guest session that placed it.
	ReferenceID string `json:"referenceId,omitempty"`
}

// LineItem references a catalog variation; the price comes from the catalog upstream.
type LineItem struct {
	VariationID string        `json:"variationId"`
	Quantity    int           `json:"quantity"`
	Modifiers   []ModifierRef `json:"modifiers,omitempty"`
	Note        string        `json:"note,omitempty"`
}

type ModifierRef struct {
	ModifierID string `json:"modifierId"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreateOrderResult is returned on success. ChargedCents is the upstream
// order total that was charged.
type CreateOrderResult struct {
	OrderID            string `json:"orderId"`
	PaymentID          string `json:"paymentId"`
	ConfirmationNumber string `json:"confirmationNumber"`
	ChargedCents       int64  `json:"-"`
}
