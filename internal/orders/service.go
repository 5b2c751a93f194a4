package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/money"
	"github.com/angelmondragon/ordering-backend/pkg/square"
)

const (
	deliveryFeeChargeName = "Delivery Fee"
	tipChargeName         = "Tip"
	confirmationLength    = 6
	maxReferenceLength    = 40
	defaultPrepTime       = 20 * time.Minute
)

// Gateway is the commerce platform: order pricing and payment capture.
type Gateway interface {
	CreateOrder(ctx context.Context, params square.OrderCreateParams) (*sq.Order, error)
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	NewIdempotencyKey(prefix string) string
}

type outcomeRecorder interface {
	IncOrder(outcome string)
}

// Service creates an order upstream and charges its total.
type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
}

type service struct {
	gateway  Gateway
	prepTime time.Duration
	metrics  outcomeRecorder
	logg     *logger.Logger
}

// NewService builds the order service. A nil gateway is allowed: every Create
// then fails with CodeMisconfigured.
func NewService(gateway Gateway, prepTime time.Duration, metrics outcomeRecorder, logg *logger.Logger) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if prepTime <= 0 {
		prepTime = defaultPrepTime
	}
	return &service{
		gateway:  gateway,
		prepTime: prepTime,
		metrics:  metrics,
		logg:     logg,
	}, nil
}

// Create runs the two upstream calls in sequence: the order first, then a
// payment for exactly the total the platform computed for it.
func (s *service) Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	pickupAt, err := validate(req)
	if err != nil {
		s.record(enums.OrderOutcomeRejected)
		return nil, err
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMisconfigured, "payment provider is not configured")
	}

	params := s.orderParams(req, pickupAt)
	params.IdempotencyKey = s.gateway.NewIdempotencyKey("order")

	order, err := s.gateway.CreateOrder(ctx, params)
	if err != nil {
		s.record(enums.OrderOutcomeOrderFailed)
		return nil, upstreamError(err, "order creation failed")
	}
	orderID := ""
	if order != nil && order.ID != nil {
		orderID = *order.ID
	}
	total, ok := square.OrderTotal(order)
	if orderID == "" || !ok {
		s.record(enums.OrderOutcomeOrderFailed)
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "order creation returned no total")
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	payment, err := s.gateway.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    total,
		OrderID:        orderID,
		SourceID:       strings.TrimSpace(req.SourceID),
		BuyerEmail:     req.Customer.Email,
		IdempotencyKey: s.gateway.NewIdempotencyKey("payment"),
		Note:           paymentNote(orderID, total),
	})
	if err != nil {
		s.record(enums.OrderOutcomePaymentFailed)
		s.logg.Error(ctx, "payment capture failed", err)
		return nil, upstreamError(err, "payment failed")
	}
	paymentID := ""
	if payment != nil && payment.ID != nil {
		paymentID = *payment.ID
	}

	s.record(enums.OrderOutcomeSucceeded)
	s.logg.Info(s.logg.WithField(ctx, "charged_cents", total), "order placed")
	return &CreateOrderResult{
		OrderID:            orderID,
		PaymentID:          paymentID,
		ConfirmationNumber: ConfirmationNumber(orderID),
		ChargedCents:       total,
	}, nil
}

func (s *service) orderParams(req CreateOrderRequest, pickupAt string) square.OrderCreateParams {
	params := square.OrderCreateParams{
		ReferenceID: referenceID(req.ReferenceID),
		LineItems:   make([]square.OrderLineItemParams, 0, len(req.Items)),
		Pickup: square.PickupParams{
			RecipientName:  req.Customer.Name,
			RecipientPhone: req.Customer.Phone,
			RecipientEmail: req.Customer.Email,
			PickupAt:       pickupAt,
			PrepTime:       isoMinutes(s.prepTime),
		},
	}
	for _, item := range req.Items {
		modifierIDs := make([]string, 0, len(item.Modifiers))
		for _, mod := range item.Modifiers {
			modifierIDs = append(modifierIDs, mod.ModifierID)
		}
		params.LineItems = append(params.LineItems, square.OrderLineItemParams{
			CatalogObjectID: item.VariationID,
			Quantity:        item.Quantity,
			ModifierIDs:     modifierIDs,
			Note:            item.Note,
		})
	}
	// Delivery fee always precedes tip.
	if req.DeliveryFee > 0 {
		params.ServiceCharges = append(params.ServiceCharges, square.ServiceChargeParams{Name: deliveryFeeChargeName, AmountCents: req.DeliveryFee})
	}
	if req.Tip > 0 {
		params.ServiceCharges = append(params.ServiceCharges, square.ServiceChargeParams{Name: tipChargeName, AmountCents: req.Tip})
	}
	if strings.EqualFold(strings.TrimSpace(req.OrderType), enums.OrderTypeDelivery.String()) && req.DeliveryAddress != nil {
		if label := req.DeliveryAddress.Label(); label != "" {
			params.Pickup.Note = "Deliver to " + label
		}
	}
	return params
}

// validate checks the request and returns the normalized pickup timestamp,
// empty for ASAP.
func validate(req CreateOrderRequest) (string, error) {
	var problems []string
	if len(req.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.VariationID) == "" {
			problems = append(problems, fmt.Sprintf("items[%d].variationId is required", i))
		}
		if item.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		problems = append(problems, "customer name is required")
	}
	if strings.TrimSpace(req.SourceID) == "" {
		problems = append(problems, "payment source is required")
	}
	if req.Tip < 0 || req.DeliveryFee < 0 {
		problems = append(problems, "tip and delivery fee must be non-negative")
	}

	pickupAt := ""
	raw := strings.TrimSpace(req.PickupTime)
	if raw != "" && !strings.EqualFold(raw, PickupASAP) {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			problems = append(problems, "pickupTime must be \"asap\" or an RFC3339 timestamp")
		} else {
			pickupAt = parsed.Format(time.RFC3339)
		}
	}

	if len(problems) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, problems[0]).WithDetails(problems)
	}
	return pickupAt, nil
}

// upstreamError keeps the platform's error detail but always reports a gateway failure.
func upstreamError(err error, message string) error {
	wrapped := pkgerrors.Wrap(pkgerrors.CodeUpstream, err, message)
	if typed := pkgerrors.As(err); typed != nil && typed.Details() != nil {
		wrapped = wrapped.WithDetails(typed.Details())
	}
	return wrapped
}

// ConfirmationNumber is the upper-cased tail of the order id.
func ConfirmationNumber(orderID string) string {
	id := strings.TrimSpace(orderID)
	if len(id) > confirmationLength {
		id = id[len(id)-confirmationLength:]
	}
	return strings.ToUpper(id)
}

// referenceID fits the caller's reference into the upstream 40 character field.
func referenceID(raw string) string {
	ref := strings.TrimSpace(raw)
	if len(ref) > maxReferenceLength {
		ref = ref[:maxReferenceLength]
	}
	return ref
}

func paymentNote(orderID string, totalCents int64) string {
	return fmt.Sprintf("Online order %s, %s", ConfirmationNumber(orderID), money.Format(totalCents))
}

func isoMinutes(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("PT%dM", minutes)
}

func (s *service) record(outcome enums.OrderOutcome) {
	if s.metrics != nil {
		s.metrics.IncOrder(outcome.String())
	}
}
