package config

// EnvPrefix is empty because every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"
	EnvCORSOrigins  = "STOREFRONT_CORS_ORIGINS"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvCartStorage      = "STOREFRONT_CART_STORAGE"
	EnvCartStorageKey   = "STOREFRONT_CART_STORAGE_KEY"
	EnvCartFallbackName = "STOREFRONT_CART_FALLBACK_NAME"
	EnvCartSessionHdr   = "STOREFRONT_CART_SESSION_HEADER"
	EnvCartTTL          = "STOREFRONT_CART_TTL"

	EnvPromotionsFeed     = "STOREFRONT_PROMOTIONS_FEED"
	EnvPromotionsInterval = "STOREFRONT_PROMOTIONS_POLL_INTERVAL"
	EnvPromotionsCacheTTL = "STOREFRONT_PROMOTIONS_CACHE_TTL"

	EnvGCPProjectID        = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubPromotionsSub = "STOREFRONT_PUBSUB_PROMOTIONS_SUBSCRIPTION"
	EnvPubSubPromotionsTop = "STOREFRONT_PUBSUB_PROMOTIONS_TOPIC"

	EnvCheckoutSessionURL = "STOREFRONT_CHECKOUT_SESSION_URL"
	EnvCheckoutVerifyURL  = "STOREFRONT_CHECKOUT_VERIFY_URL"
	EnvCheckoutTimeout    = "STOREFRONT_CHECKOUT_TIMEOUT"
	EnvCheckoutRateWindow = "STOREFRONT_CHECKOUT_RATE_LIMIT_WINDOW"

	EnvMetricsEnabled = "STOREFRONT_METRICS_ENABLED"
	EnvMetricsPath    = "STOREFRONT_METRICS_PATH"
)

const (
	CartStorageMemory = "memory"
	CartStorageRedis  = "redis"
	CartStorageDB     = "db"

	PromotionsFeedPoll   = "poll"
	PromotionsFeedPubSub = "pubsub"
	PromotionsFeedNone   = "none"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
