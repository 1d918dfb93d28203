package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PayOS        PayOSConfig
	Basket       BasketConfig
	Webhook      WebhookConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.PayOS.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRIPPIO_APP_ENV" required:"true"`
	Port         string `envconfig:"TRIPPIO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TRIPPIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRIPPIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TRIPPIO_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"TRIPPIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRIPPIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRIPPIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRIPPIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRIPPIO_REDIS_URL"`
	Address      string        `envconfig:"TRIPPIO_REDIS_ADDR"`
	Password     string        `envconfig:"TRIPPIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRIPPIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRIPPIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRIPPIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRIPPIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRIPPIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRIPPIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"TRIPPIO_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TRIPPIO_JWT_ISSUER" default:"trippio"`
}

// PayOSConfig carries the provider credentials. The checksum key signs
// webhook payloads and must never be logged.
type PayOSConfig struct {
	ClientID    string `envconfig:"TRIPPIO_PAYOS_CLIENT_ID" required:"true"`
	APIKey      string `envconfig:"TRIPPIO_PAYOS_API_KEY" required:"true"`
	ChecksumKey string `envconfig:"TRIPPIO_PAYOS_CHECKSUM_KEY" required:"true"`
	BaseURL     string `envconfig:"TRIPPIO_PAYOS_BASE_URL" default:"https://api-merchant.payos.vn"`

	WebReturnURL     string `envconfig:"TRIPPIO_PAYOS_WEB_RETURN_URL" required:"true"`
	WebCancelURL     string `envconfig:"TRIPPIO_PAYOS_WEB_CANCEL_URL" required:"true"`
	MobileReturnURL  string `envconfig:"TRIPPIO_PAYOS_MOBILE_RETURN_URL"`
	MobileCancelURL  string `envconfig:"TRIPPIO_PAYOS_MOBILE_CANCEL_URL"`
	MinAmount        int64  `envconfig:"TRIPPIO_PAYOS_MIN_AMOUNT" default:"2000"`
	RequestTimeoutMS int    `envconfig:"TRIPPIO_PAYOS_REQUEST_TIMEOUT_MS" default:"10000"`
}

func (p PayOSConfig) validate() error {
	if strings.TrimSpace(p.ChecksumKey) == "" {
		return fmt.Errorf("payos checksum key is required")
	}
	if p.MinAmount <= 0 {
		return fmt.Errorf("payos minimum amount must be positive")
	}
	return nil
}

// RequestTimeout returns the provider HTTP timeout.
func (p PayOSConfig) RequestTimeout() time.Duration {
	if p.RequestTimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.RequestTimeoutMS) * time.Millisecond
}

type BasketConfig struct {
	TTL time.Duration `envconfig:"TRIPPIO_BASKET_TTL" default:"168h"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"TRIPPIO_WEBHOOK_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRIPPIO_AUTO_MIGRATE" default:"false"`
}
