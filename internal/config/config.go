// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	PayHere   PayHereConfig   `koanf:"payhere"`
	Trial     TrialConfig     `koanf:"trial"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	PublicURL   string `koanf:"public_url"`
	FrontendURL string `koanf:"frontend_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// AuthConfig describes how tokens minted by the hosted auth provider are
// verified. Either JWTSecret (HS256) or JWKSURL must be set.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	JWKSURL   string `koanf:"jwks_url"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
}

// PayHereConfig holds the merchant credentials. They are allowed to be empty
// at startup: the payment paths fail closed per request instead.
type PayHereConfig struct {
	MerchantID     string  `koanf:"merchant_id"`
	MerchantSecret string  `koanf:"merchant_secret"`
	Sandbox        bool    `koanf:"sandbox"`
	OrderPrefix    string  `koanf:"order_prefix"`
	Currency       string  `koanf:"currency"`
	PremiumAmount  float64 `koanf:"premium_amount"`
}

func (p *PayHereConfig) CheckoutURL() string {
	if p.Sandbox {
		return "https://sandbox.payhere.lk/pay/checkout"
	}
	return "https://www.payhere.lk/pay/checkout"
}

// MaxTrialDays bounds trial.days well inside the time.Duration range.
const MaxTrialDays = 3650

type TrialConfig struct {
	Days int `koanf:"days"`
}

func (t TrialConfig) Duration() time.Duration {
	return time.Duration(t.Days) * 24 * time.Hour
}

type RateLimitConfig struct {
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Burst           int           `koanf:"burst"`
	WebhookRequests int           `koanf:"webhook_requests"`
	WebhookBurst    int           `koanf:"webhook_burst"`
	// TrustProxy keys limits on X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that overwrites them.
	TrustProxy      bool          `koanf:"trust_proxy"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":         "Wedding Planner API",
		"app.version":      "1.0.0",
		"app.environment":  "development",
		"app.public_url":   "http://localhost:8080",
		"app.frontend_url": "http://localhost:3000",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"auth.audience": "authenticated",

		"payhere.sandbox":        true,
		"payhere.order_prefix":   "ORDER",
		"payhere.currency":       "LKR",
		"payhere.premium_amount": 4990.00,

		"trial.days": 14,

		"rate_limit.requests":         100,
		"rate_limit.window":           "1m",
		"rate_limit.burst":            20,
		"rate_limit.webhook_requests": 30,
		"rate_limit.webhook_burst":    10,
		"rate_limit.trust_proxy":      false,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "wedding-planner",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"PUBLIC_URL":                  "app.public_url",
	"FRONTEND_URL":                "app.frontend_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"AUTH_JWT_SECRET":             "auth.jwt_secret",
	"AUTH_JWKS_URL":               "auth.jwks_url",
	"AUTH_ISSUER":                 "auth.issuer",
	"AUTH_AUDIENCE":               "auth.audience",
	"PAYHERE_MERCHANT_ID":         "payhere.merchant_id",
	"PAYHERE_MERCHANT_SECRET":     "payhere.merchant_secret",
	"PAYHERE_SANDBOX":             "payhere.sandbox",
	"PAYHERE_ORDER_PREFIX":        "payhere.order_prefix",
	"PAYHERE_CURRENCY":            "payhere.currency",
	"PAYHERE_PREMIUM_AMOUNT":      "payhere.premium_amount",
	"TRIAL_DAYS":                  "trial.days",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_WEBHOOK_REQUESTS": "rate_limit.webhook_requests",
	"RATE_LIMIT_WEBHOOK_BURST":    "rate_limit.webhook_burst",
	"RATE_LIMIT_TRUST_PROXY":      "rate_limit.trust_proxy",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("AUTH_JWT_SECRET or AUTH_JWKS_URL is required")
	}

	if c.Trial.Days < 0 {
		return fmt.Errorf("trial.days must not be negative")
	}

	if c.Trial.Days > MaxTrialDays {
		return fmt.Errorf("trial.days must be at most %d", MaxTrialDays)
	}

	if c.PayHere.OrderPrefix == "" {
		return fmt.Errorf("payhere.order_prefix is required")
	}

	for _, r := range c.PayHere.OrderPrefix {
		if r == '_' {
			return fmt.Errorf("payhere.order_prefix must not contain '_'")
		}
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.PayHere.Sandbox {
			return fmt.Errorf("PAYHERE_SANDBOX must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
