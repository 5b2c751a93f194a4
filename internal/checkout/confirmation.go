package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

const confirmationKey = "confirmation"

// Confirmation is written once after a successful submission and read once
// by the confirmation view. Delivery fields are present only for delivery.
type Confirmation struct {
	OrderID            string                 `json:"orderId"`
	PaymentID          string                 `json:"paymentId"`
	ConfirmationNumber string                 `json:"confirmationNumber"`
	Items              []cart.Item            `json:"items"`
	Subtotal           int64                  `json:"subtotal"`
	Tax                int64                  `json:"tax"`
	DeliveryFee        *int64                 `json:"deliveryFee,omitempty"`
	Tip                int64                  `json:"tip"`
	Total              int64                  `json:"total"`
	ChargedTotal       int64                  `json:"chargedTotal"`
	Customer           orders.Customer        `json:"customer"`
	OrderType          enums.OrderType        `json:"orderType"`
	PickupTime         string                 `json:"pickupTime"`
	PickupLabel        string                 `json:"pickupLabel"`
	DeliveryAddress    *types.DeliveryAddress `json:"deliveryAddress,omitempty"`
	DeliveryEstimate   string                 `json:"deliveryEstimate,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
}

func (s *service) saveConfirmation(ctx context.Context, sessionID string, c Confirmation) {
	payload, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.store.Set(ctx, s.keys.SessionKey(sessionID, confirmationKey), string(payload), s.settings.ConfirmationTTL)
}

// Confirmation returns the snapshot and removes it.
func (s *service) Confirmation(ctx context.Context, sessionID string) (*Confirmation, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	raw, ok := s.store.Take(ctx, s.keys.SessionKey(sessionID, confirmationKey))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no recent order")
	}
	var c Confirmation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no recent order")
	}
	return &c, nil
}
