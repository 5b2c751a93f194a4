// Package checkout prices the session's cart for payment and submits it as
// an order.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/internal/preferences"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/kv"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

const submitLockKey = "checkout-lock"

// Settings are the checkout constants.
type Settings struct {
	DefaultTipPercent int
	TipPresets        []int
	PrepTime          time.Duration
	SlotInterval      time.Duration
	OpenHour          int
	CloseHour         int
	Location          *time.Location
	ConfirmationTTL   time.Duration
	LockTTL           time.Duration
}

// SettingsFromConfig reads the checkout constants from the ordering config.
func SettingsFromConfig(cfg config.OrderingConfig) Settings {
	return Settings{
		DefaultTipPercent: cfg.DefaultTipPercent,
		TipPresets:        cfg.TipPresets,
		PrepTime:          cfg.PrepTime,
		SlotInterval:      cfg.PickupSlotInterval,
		OpenHour:          cfg.OpenHour,
		CloseHour:         cfg.CloseHour,
		Location:          cfg.Location(),
		ConfirmationTTL:   cfg.ConfirmationTTL,
		LockTTL:           cfg.SubmitLockTTL,
	}
}

// Quote is the priced cart shown on the checkout view.
type Quote struct {
	Items            []cart.Item     `json:"items"`
	OrderType        enums.OrderType `json:"orderType"`
	Subtotal         int64           `json:"subtotal"`
	Tax              int64           `json:"tax"`
	DeliveryFee      *int64          `json:"deliveryFee,omitempty"`
	DeliveryEstimate string          `json:"deliveryEstimate,omitempty"`
	Tip              int64           `json:"tip"`
	TipPercent       *int            `json:"tipPercent,omitempty"`
	TipPresets       []int           `json:"tipPresets"`
	Total            int64           `json:"total"`
	MinimumOrder     int64           `json:"minimumOrder"`
	MeetsMinimum     bool            `json:"meetsMinimum"`
}

// SubmitRequest is what the checkout form sends. Items, order type and
// address come from the session.
type SubmitRequest struct {
	Customer   orders.Customer `json:"customer"`
	Tip        TipSelection    `json:"tip"`
	SourceID   string          `json:"sourceId"`
	PickupTime string          `json:"pickupTime"`
}

// OrderCreator places the order upstream.
type OrderCreator interface {
	Create(ctx context.Context, req orders.CreateOrderRequest) (*orders.CreateOrderResult, error)
}

type outcomeRecorder interface {
	IncOrder(outcome string)
}

// Service runs the checkout for a session.
type Service interface {
	Quote(ctx context.Context, sessionID string, tip TipSelection) (*Quote, error)
	Submit(ctx context.Context, sessionID string, req SubmitRequest) (*Confirmation, error)
	Confirmation(ctx context.Context, sessionID string) (*Confirmation, error)
	PickupOptions() PickupOptions
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Cart        cart.Service
	Preferences preferences.Service
	Orders      OrderCreator
	Store       kv.Store
	Locker      kv.Locker
	Keys        kv.Keyspace
	Metrics     outcomeRecorder
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	cart     cart.Service
	prefs    preferences.Service
	orders   OrderCreator
	store    kv.Store
	locker   kv.Locker
	keys     kv.Keyspace
	metrics  outcomeRecorder
	logg     *logger.Logger
	now      func() time.Time
	settings Settings
}

// NewService builds the checkout service.
func NewService(deps Deps, settings Settings) (Service, error) {
	switch {
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Preferences == nil:
		return nil, fmt.Errorf("preferences service required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("order creator required")
	case deps.Store == nil:
		return nil, fmt.Errorf("kv store required")
	case deps.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case deps.Keys == nil:
		return nil, fmt.Errorf("keyspace required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cart:     deps.Cart,
		prefs:    deps.Preferences,
		orders:   deps.Orders,
		store:    deps.Store,
		locker:   deps.Locker,
		keys:     deps.Keys,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		now:      now,
		settings: settings,
	}, nil
}

func (s *service) PickupOptions() PickupOptions {
	return s.settings.PickupSlots(s.now())
}

func (s *service) Quote(ctx context.Context, sessionID string, tip TipSelection) (*Quote, error) {
	summary, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	orderType, err := s.prefs.OrderType(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.price(summary, orderType, tip)
}

func (s *service) price(summary *cart.Summary, orderType enums.OrderType, sel TipSelection) (*Quote, error) {
	tip, err := s.settings.Tip(summary.Subtotal, sel)
	if err != nil {
		return nil, err
	}
	fulfillment := s.prefs.Fulfillment(orderType)
	return &Quote{
		Items:            summary.Items,
		OrderType:        fulfillment.OrderType,
		Subtotal:         summary.Subtotal,
		Tax:              summary.Tax,
		DeliveryFee:      fulfillment.DeliveryFee,
		DeliveryEstimate: fulfillment.DeliveryEstimate,
		Tip:              tip,
		TipPercent:       s.settings.AppliedPercent(sel),
		TipPresets:       s.settings.TipPresets,
		Total:            summary.Subtotal + summary.Tax + fulfillment.FeeCents() + tip,
		MinimumOrder:     summary.MinimumOrder,
		MeetsMinimum:     summary.MeetsMinimum,
	}, nil
}

// Submit validates locally, then places the order. Nothing is sent upstream
// unless every local check passes. On failure the cart is left untouched.
func (s *service) Submit(ctx context.Context, sessionID string, req SubmitRequest) (*Confirmation, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if missing := missingContact(req.Customer); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "please enter your "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}

	// The cart is read under the lock so a resubmit cannot place the cart a
	// finished submit is about to clear.
	lockKey := s.keys.SessionKey(sessionID, submitLockKey)
	token, ok := s.locker.Acquire(ctx, lockKey, s.settings.LockTTL)
	if !ok {
		s.record(enums.OrderOutcomeDuplicateSubmit)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order is already being submitted")
	}
	defer s.locker.Release(ctx, lockKey, token)

	summary, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	if !summary.MeetsMinimum {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order minimum not met").
			WithDetails(map[string]any{"minimumOrder": summary.MinimumOrder, "subtotal": summary.Subtotal})
	}
	if strings.TrimSpace(req.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment details are required")
	}

	orderType, err := s.prefs.OrderType(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var address *types.DeliveryAddress
	if orderType.IsDelivery() {
		addr, err := s.prefs.Address(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if missing := addr.Missing(); len(missing) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is incomplete").
				WithDetails(map[string]any{"missing": missing})
		}
		address = &addr
	}

	now := s.now()
	pickupTime, pickupLabel, err := s.settings.resolvePickup(now, req.PickupTime)
	if err != nil {
		return nil, err
	}
	quote, err := s.price(summary, orderType, req.Tip)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithSessionID(ctx, sessionID)
	result, err := s.orders.Create(ctx, s.orderRequest(sessionID, summary.Items, quote, req, pickupTime, address))
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"error":      err.Error(),
			"error_code": pkgerrors.CodeOf(err),
		}), "checkout submission failed")
		return nil, err
	}

	confirmation := Confirmation{
		OrderID:            result.OrderID,
		PaymentID:          result.PaymentID,
		ConfirmationNumber: result.ConfirmationNumber,
		Items:              summary.Items,
		Subtotal:           quote.Subtotal,
		Tax:                quote.Tax,
		DeliveryFee:        quote.DeliveryFee,
		Tip:                quote.Tip,
		Total:              quote.Total,
		ChargedTotal:       result.ChargedCents,
		Customer:           trimCustomer(req.Customer),
		OrderType:          quote.OrderType,
		PickupTime:         pickupTime,
		PickupLabel:        pickupLabel,
		DeliveryAddress:    address,
		DeliveryEstimate:   quote.DeliveryEstimate,
		CreatedAt:          now.UTC(),
	}
	s.saveConfirmation(ctx, sessionID, confirmation)
	if err := s.cart.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "clear cart after order", err)
	}
	return &confirmation, nil
}

func (s *service) orderRequest(sessionID string, items []cart.Item, quote *Quote, req SubmitRequest, pickupTime string, address *types.DeliveryAddress) orders.CreateOrderRequest {
	lines := make([]orders.LineItem, 0, len(items))
	for _, item := range items {
		mods := make([]orders.ModifierRef, 0, len(item.Modifiers))
		for _, mod := range item.Modifiers {
			mods = append(mods, orders.ModifierRef{ModifierID: mod.ModifierID})
		}
		lines = append(lines, orders.LineItem{
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			Modifiers:   mods,
			Note:        item.Instructions,
		})
	}
	var deliveryFee int64
	if quote.DeliveryFee != nil {
		deliveryFee = *quote.DeliveryFee
	}
	return orders.CreateOrderRequest{
		Items:           lines,
		Customer:        trimCustomer(req.Customer),
		Tip:             quote.Tip,
		DeliveryFee:     deliveryFee,
		OrderType:       quote.OrderType.String(),
		SourceID:        strings.TrimSpace(req.SourceID),
		PickupTime:      pickupTime,
		DeliveryAddress: address,
		ReferenceID:     sessionID,
	}
}

func missingContact(c orders.Customer) []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

func trimCustomer(c orders.Customer) orders.Customer {
	return orders.Customer{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.TrimSpace(c.Email),
	}
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return nil
}

func (s *service) record(outcome enums.OrderOutcome) {
	if s.metrics != nil {
		s.metrics.IncOrder(outcome.String())
	}
}
