package config

// EnvPrefix is handed to envconfig; every field carries an explicit name.
const EnvPrefix = "ORDERING"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "ORDERING_APP_ENV"
	EnvPort               = "ORDERING_APP_PORT"
	EnvLogLevel           = "ORDERING_LOG_LEVEL"
	EnvRedisURL           = "ORDERING_REDIS_URL"
	EnvSessionSecret      = "ORDERING_SESSION_SECRET"
	EnvSquareAccessToken  = "ORDERING_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID   = "ORDERING_SQUARE_LOCATION_ID"
	EnvSquareEnv          = "ORDERING_SQUARE_ENV"
	EnvTaxRate            = "ORDERING_TAX_RATE"
	EnvMinimumOrderCents  = "ORDERING_MINIMUM_ORDER_CENTS"
	EnvDefaultTipPercent  = "ORDERING_DEFAULT_TIP_PERCENT"
	EnvTipPresets         = "ORDERING_TIP_PRESETS"
	EnvOpenHour           = "ORDERING_OPEN_HOUR"
	EnvCloseHour          = "ORDERING_CLOSE_HOUR"
	EnvPickupSlotInterval = "ORDERING_PICKUP_SLOT_INTERVAL"
	EnvCORSOrigins        = "ORDERING_CORS_ORIGINS"
)
