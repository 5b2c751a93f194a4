// Package preferences stores the shopper's order type and delivery address,
// each under its own key and independent of the cart.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

const (
	orderTypeKey = "order-type"
	addressKey   = "delivery-address"
)

// DefaultOrderType applies when nothing valid is stored.
const DefaultOrderType = enums.OrderTypePickup

// Settings are the delivery constants.
type Settings struct {
	DeliveryFeeCents int64
	DeliveryEstimate string
	TTL              time.Duration
}

// SettingsFromConfig reads the delivery constants from the ordering config.
func SettingsFromConfig(cfg config.OrderingConfig) Settings {
	return Settings{
		DeliveryFeeCents: cfg.DeliveryFeeCents,
		DeliveryEstimate: cfg.DeliveryEstimate,
		TTL:              cfg.CartTTL,
	}
}

// Fulfillment is the delivery fee and window for an order type. Both are
// absent for pickup.
type Fulfillment struct {
	OrderType        enums.OrderType `json:"orderType"`
	DeliveryFee      *int64          `json:"deliveryFee,omitempty"`
	DeliveryEstimate string          `json:"deliveryEstimate,omitempty"`
}

// FeeCents returns the delivery fee or zero.
func (f Fulfillment) FeeCents() int64 {
	if f.DeliveryFee == nil {
		return 0
	}
	return *f.DeliveryFee
}

// Fulfillment resolves the charges that apply to orderType.
func (s Settings) Fulfillment(orderType enums.OrderType) Fulfillment {
	if !orderType.IsDelivery() {
		return Fulfillment{OrderType: enums.OrderTypePickup}
	}
	fee := s.DeliveryFeeCents
	return Fulfillment{
		OrderType:        enums.OrderTypeDelivery,
		DeliveryFee:      &fee,
		DeliveryEstimate: s.DeliveryEstimate,
	}
}

// Service reads and writes the per-session preferences.
type Service interface {
	OrderType(ctx context.Context, sessionID string) (enums.OrderType, error)
	SetOrderType(ctx context.Context, sessionID, value string) (enums.OrderType, error)
	Address(ctx context.Context, sessionID string) (types.DeliveryAddress, error)
	UpdateAddress(ctx context.Context, sessionID string, patch types.AddressPatch) (types.DeliveryAddress, error)
	Fulfillment(orderType enums.OrderType) Fulfillment
}

type service struct {
	store    kv.Store
	keys     kv.Keyspace
	settings Settings
}

// NewService builds the preference service.
func NewService(store kv.Store, keys kv.Keyspace, settings Settings) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("keyspace required")
	}
	return &service{store: store, keys: keys, settings: settings}, nil
}

// OrderType returns the stored type; anything unrecognized is the default.
func (s *service) OrderType(ctx context.Context, sessionID string) (enums.OrderType, error) {
	if err := requireSession(sessionID); err != nil {
		return "", err
	}
	raw, ok := s.store.Get(ctx, s.keys.SessionKey(sessionID, orderTypeKey))
	if !ok {
		return DefaultOrderType, nil
	}
	parsed, err := enums.ParseOrderType(strings.TrimSpace(raw))
	if err != nil {
		return DefaultOrderType, nil
	}
	return parsed, nil
}

func (s *service) SetOrderType(ctx context.Context, sessionID, value string) (enums.OrderType, error) {
	if err := requireSession(sessionID); err != nil {
		return "", err
	}
	parsed, err := enums.ParseOrderType(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order type must be pickup or delivery")
	}
	s.store.Set(ctx, s.keys.SessionKey(sessionID, orderTypeKey), parsed.String(), s.settings.TTL)
	return parsed, nil
}

// Address returns the stored address; an unreadable record is empty.
func (s *service) Address(ctx context.Context, sessionID string) (types.DeliveryAddress, error) {
	if err := requireSession(sessionID); err != nil {
		return types.DeliveryAddress{}, err
	}
	raw, ok := s.store.Get(ctx, s.keys.SessionKey(sessionID, addressKey))
	if !ok {
		return types.DeliveryAddress{}, nil
	}
	var addr types.DeliveryAddress
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return types.DeliveryAddress{}, nil
	}
	return addr, nil
}

// UpdateAddress merges patch into the stored record and persists it at once.
func (s *service) UpdateAddress(ctx context.Context, sessionID string, patch types.AddressPatch) (types.DeliveryAddress, error) {
	current, err := s.Address(ctx, sessionID)
	if err != nil {
		return types.DeliveryAddress{}, err
	}
	merged := current.Merge(patch)
	payload, err := json.Marshal(merged)
	if err != nil {
		return types.DeliveryAddress{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode address")
	}
	s.store.Set(ctx, s.keys.SessionKey(sessionID, addressKey), string(payload), s.settings.TTL)
	return merged, nil
}

func (s *service) Fulfillment(orderType enums.OrderType) Fulfillment {
	return s.settings.Fulfillment(orderType)
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return nil
}
