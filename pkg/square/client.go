package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errClientRequired   = errors.New("square client is required")
	errInvalidSquareEnv = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired   = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// UpstreamObserver receives the duration of every Square call.
type UpstreamObserver interface {
	ObserveUpstream(operation string, duration time.Duration, err error)
}

// Client exposes Square primitives with centralized auth, logging, idempotency, and error mapping.
type Client struct {
	sdk         *sqclient.Client
	environment string
	locationID  string
	currency    string
	baseURL     string
	logger      *logger.Logger
	observer    UpstreamObserver
}

// NewClient initializes the Square wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger, observer UpstreamObserver) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	baseURL := baseURLs[env]
	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(strings.TrimSpace(cfg.AccessToken)),
	)

	c := &Client{
		sdk:         sdk,
		environment: env,
		locationID:  strings.TrimSpace(cfg.LocationID),
		currency:    strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		baseURL:     baseURL,
		logger:      logg,
		observer:    observer,
	}

	logg.Info(logg.WithField(ctx, "square_env", env), "square client initialized")
	return c, nil
}

// Environment reports the normalized Square environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency returns the ISO currency used for money fields.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return "USD"
	}
	return c.currency
}

// NewIdempotencyKey returns a unique key for Square operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "ord"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateOrder creates the order resource; Square prices it and returns the totals.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*sq.Order, error) {
	if c == nil || c.sdk == nil {
		return nil, errClientRequired
	}
	if params.LocationID == "" {
		params.LocationID = c.locationID
	}
	if params.Currency == "" {
		params.Currency = c.Currency()
	}
	req := params.toSquareRequest(c.ensureIdempotencyKey("order.create", params.IdempotencyKey))
	c.log(ctx, "request", "create_order", map[string]any{
		"location_id":     params.LocationID,
		"line_items":      len(params.LineItems),
		"service_charges": len(req.Order.ServiceCharges),
	})

	start := time.Now()
	resp, err := c.sdk.Orders.Create(ctx, req)
	c.observe("create_order", start, err)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "create order")
	}

	order := resp.GetOrder()
	c.log(ctx, "response", "create_order", map[string]any{
		"order_id": stringValue(order.GetID()),
		"total":    moneyAmount(order.GetTotalMoney()),
	})
	return order, nil
}

// CreatePayment charges the payment source against an order.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	if c == nil || c.sdk == nil {
		return nil, errClientRequired
	}
	if params.LocationID == "" {
		params.LocationID = c.locationID
	}
	if params.Currency == "" {
		params.Currency = c.Currency()
	}
	req := params.toSquareRequest(c.ensureIdempotencyKey("payment.create", params.IdempotencyKey))
	c.log(ctx, "request", "create_payment", map[string]any{
		"location_id": params.LocationID,
		"order_id":    params.OrderID,
		"amount":      params.AmountCents,
		"source_id":   params.SourceID,
	})

	start := time.Now()
	resp, err := c.sdk.Payments.Create(ctx, req)
	c.observe("create_payment", start, err)
	if err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "create payment")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c == nil || c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(op, time.Since(start), err)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	return logger.Redact(key, value)
}

// UpstreamError is the detail attached to errors returned by Square.
type UpstreamError struct {
	Category string `json:"category,omitempty"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

func (c *Client) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		sqErrs := c.extractSquareErrors(apiErr)
		details := make([]UpstreamError, 0, len(sqErrs))
		for _, sqErr := range sqErrs {
			if sqErr == nil {
				continue
			}
			details = append(details, UpstreamError{
				Category: string(sqErr.Category),
				Code:     string(sqErr.Code),
				Detail:   stringValue(sqErr.Detail),
				Field:    stringValue(sqErr.Field),
			})
			if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
				code = pkgerrors.CodeIdempotency
			}
			if sqErr.Category == sq.ErrorCategoryAuthenticationError {
				code = pkgerrors.CodeMisconfigured
			}
		}
		wrapped := pkgerrors.Wrap(code, err, fmt.Sprintf("square %s failed", op))
		if len(details) > 0 {
			wrapped = wrapped.WithDetails(details)
		}
		return wrapped
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("square %s failed", op))
}

func (c *Client) extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

// domainCodeForStatus classifies Square HTTP statuses. Credential problems are
// ours to fix; everything else is the platform refusing or failing the call.
func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeMisconfigured
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeUpstream
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func moneyAmount(m *sq.Money) int64 {
	if m == nil || m.Amount == nil {
		return 0
	}
	return *m.Amount
}

// OrderTotal returns the platform-computed total of an order in minor units.
func OrderTotal(order *sq.Order) (int64, bool) {
	if order == nil || order.TotalMoney == nil || order.TotalMoney.Amount == nil {
		return 0, false
	}
	return *order.TotalMoney.Amount, true
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidSquareEnv
	}
}
