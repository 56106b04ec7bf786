package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Cart       CartConfig
	Promotions PromotionsConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Checkout   CheckoutConfig
	Metrics    MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Cart.Backend() {
	case CartStorageMemory:
	case CartStorageRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s=redis requires %s or %s", EnvCartStorage, EnvRedisURL, EnvRedisAddr)
		}
	case CartStorageDB:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s=db requires %s", EnvCartStorage, EnvDBDSN)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvCartStorage, c.Cart.Storage)
	}

	switch c.Promotions.FeedKind() {
	case PromotionsFeedNone:
	case PromotionsFeedPoll:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s=poll requires %s", EnvPromotionsFeed, EnvDBDSN)
		}
		if c.Promotions.PollInterval <= 0 {
			return fmt.Errorf("%s must be positive", EnvPromotionsInterval)
		}
	case PromotionsFeedPubSub:
		if strings.TrimSpace(c.GCP.ProjectID) == "" || strings.TrimSpace(c.PubSub.PromotionsSubscription) == "" {
			return fmt.Errorf("%s=pubsub requires %s and %s", EnvPromotionsFeed, EnvGCPProjectID, EnvPubSubPromotionsSub)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvPromotionsFeed, c.Promotions.Feed)
	}

	switch c.DB.DriverName() {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d DBConfig) DriverName() string {
	return strings.ToLower(strings.TrimSpace(d.Driver))
}

func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CartConfig struct {
	Storage       string        `envconfig:"STOREFRONT_CART_STORAGE" default:"memory"`
	StorageKey    string        `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"cartItems"`
	FallbackName  string        `envconfig:"STOREFRONT_CART_FALLBACK_NAME" default:"Unknown Item"`
	SessionHeader string        `envconfig:"STOREFRONT_CART_SESSION_HEADER" default:"X-Cart-Session"`
	TTL           time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
}

func (c CartConfig) Backend() string {
	return strings.ToLower(strings.TrimSpace(c.Storage))
}

type PromotionsConfig struct {
	Feed         string        `envconfig:"STOREFRONT_PROMOTIONS_FEED" default:"poll"`
	PollInterval time.Duration `envconfig:"STOREFRONT_PROMOTIONS_POLL_INTERVAL" default:"30s"`
	CacheTTL     time.Duration `envconfig:"STOREFRONT_PROMOTIONS_CACHE_TTL" default:"10m"`
}

func (p PromotionsConfig) FeedKind() string {
	return strings.ToLower(strings.TrimSpace(p.Feed))
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PromotionsTopic        string `envconfig:"STOREFRONT_PUBSUB_PROMOTIONS_TOPIC"`
	PromotionsSubscription string `envconfig:"STOREFRONT_PUBSUB_PROMOTIONS_SUBSCRIPTION"`
}

type CheckoutConfig struct {
	SessionURL string        `envconfig:"STOREFRONT_CHECKOUT_SESSION_URL"`
	VerifyURL  string        `envconfig:"STOREFRONT_CHECKOUT_VERIFY_URL"`
	Timeout    time.Duration `envconfig:"STOREFRONT_CHECKOUT_TIMEOUT" default:"10s"`

	// Rate limiting needs Redis; without it checkout is not throttled.
	RateLimitWindow     time.Duration `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP      int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_IP" default:"20"`
	RateLimitPerSession int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_SESSION" default:"5"`
}

func (c CheckoutConfig) Enabled() bool {
	return strings.TrimSpace(c.SessionURL) != ""
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"STOREFRONT_METRICS_PATH" default:"/metrics"`
}
