package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Session   SessionConfig
	Square    SquareConfig
	Ordering  OrderingConfig
	Catalog   CatalogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Ordering.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateSquareForEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateSquareForEnv refuses a prod deploy that would take sandbox payments.
func (c Config) validateSquareForEnv() error {
	if c.App.IsProd() && strings.TrimSpace(c.Square.AccessToken) != "" && c.Square.Environment() != "production" {
		return fmt.Errorf("%s must be production when %s is %s", EnvSquareEnv, EnvAppEnv, AppEnvProd)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERING_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ORDERING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERING_LOG_WARN_STACK" default:"false"`
	// TrustProxy honors forwarding headers for the client address. Enable it
	// only when every request arrives through a proxy that overwrites them.
	TrustProxy bool `envconfig:"ORDERING_TRUST_PROXY" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// LogFormat is console output on dev machines. Elsewhere it is left empty
// so ORDERING_LOG_FORMAT or JSON applies.
func (a AppConfig) LogFormat() string {
	if a.IsDev() {
		return "console"
	}
	return ""
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERING_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERING_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERING_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERING_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"ORDERING_REDIS_KEY_PREFIX" default:"ord"`
}

// SessionConfig signs the guest session tokens that namespace carts and preferences.
type SessionConfig struct {
	Secret string        `envconfig:"ORDERING_SESSION_SECRET" required:"true"`
	Issuer string        `envconfig:"ORDERING_SESSION_ISSUER" default:"ordering-backend"`
	TTL    time.Duration `envconfig:"ORDERING_SESSION_TTL" default:"720h"`
}

// SquareConfig holds the commerce platform credentials. None of the fields are
// required at boot; the order and catalog routes fail closed when Validate fails.
type SquareConfig struct {
	AccessToken string `envconfig:"ORDERING_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"ORDERING_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"ORDERING_SQUARE_ENV" default:"sandbox"`
	Currency    string `envconfig:"ORDERING_SQUARE_CURRENCY" default:"USD"`

	// The webhook route rejects every delivery until both are set.
	WebhookSignatureKey string `envconfig:"ORDERING_SQUARE_WEBHOOK_SIGNATURE_KEY"`
	WebhookURL          string `envconfig:"ORDERING_SQUARE_WEBHOOK_URL"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// Validate reports every missing Square setting at once.
func (s SquareConfig) Validate() error {
	var err error
	if strings.TrimSpace(s.AccessToken) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvSquareAccessToken))
	}
	if strings.TrimSpace(s.LocationID) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvSquareLocationID))
	}
	switch s.Environment() {
	case "sandbox", "production":
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be sandbox or production", EnvSquareEnv))
	}
	return err
}

// OrderingConfig carries the restaurant's business constants.
type OrderingConfig struct {
	TaxRate            string        `envconfig:"ORDERING_TAX_RATE" default:"0.06"`
	MinimumOrderCents  int64         `envconfig:"ORDERING_MINIMUM_ORDER_CENTS" default:"1500"`
	DeliveryFeeCents   int64         `envconfig:"ORDERING_DELIVERY_FEE_CENTS" default:"500"`
	DeliveryEstimate   string        `envconfig:"ORDERING_DELIVERY_ESTIMATE" default:"45-60 min"`
	DefaultTipPercent  int           `envconfig:"ORDERING_DEFAULT_TIP_PERCENT" default:"20"`
	TipPresets         []int         `envconfig:"ORDERING_TIP_PRESETS" default:"15,18,20,25"`
	PrepTime           time.Duration `envconfig:"ORDERING_PREP_TIME" default:"20m"`
	PickupSlotInterval time.Duration `envconfig:"ORDERING_PICKUP_SLOT_INTERVAL" default:"15m"`
	OpenHour           int           `envconfig:"ORDERING_OPEN_HOUR" default:"11"`
	CloseHour          int           `envconfig:"ORDERING_CLOSE_HOUR" default:"21"`
	TimeZone           string        `envconfig:"ORDERING_TIME_ZONE" default:"America/New_York"`
	CartTTL            time.Duration `envconfig:"ORDERING_CART_TTL" default:"168h"`
	ConfirmationTTL    time.Duration `envconfig:"ORDERING_CONFIRMATION_TTL" default:"2h"`
	SubmitLockTTL      time.Duration `envconfig:"ORDERING_SUBMIT_LOCK_TTL" default:"2m"`
}

// Tax returns the parsed tax rate.
func (o OrderingConfig) Tax() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(o.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// Location resolves the configured time zone, falling back to UTC.
func (o OrderingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(o.TimeZone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (o OrderingConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(o.TaxRate))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in [0, 1)", EnvTaxRate)
	}
	if o.MinimumOrderCents < 0 || o.DeliveryFeeCents < 0 {
		return errors.New("ordering amounts must be non-negative")
	}
	if o.OpenHour < 0 || o.CloseHour > 24 || o.OpenHour >= o.CloseHour {
		return fmt.Errorf("%s must be before %s", EnvOpenHour, EnvCloseHour)
	}
	if o.PickupSlotInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvPickupSlotInterval)
	}
	return nil
}

type CatalogConfig struct {
	CacheTTL       time.Duration `envconfig:"ORDERING_CATALOG_CACHE_TTL" default:"5m"`
	ResponseMaxAge time.Duration `envconfig:"ORDERING_CATALOG_MAX_AGE" default:"300s"`
	// WarmInterval is how often the warmer refreshes the cache; keep it under CacheTTL.
	WarmInterval   time.Duration `envconfig:"ORDERING_CATALOG_WARM_INTERVAL" default:"4m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ORDERING_CORS_ORIGINS" default:"http://localhost:3000"`
}

type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"ORDERING_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"ORDERING_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"10"`
}
