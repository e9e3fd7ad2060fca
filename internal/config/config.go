package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// devSessionSecret is only ever used outside production so that local
// setups work without any configuration. Load rejects an empty secret in
// production.
const devSessionSecret = "aperture-dev-secret-do-not-use"

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	BucketAssets string
	UseSSL       bool
	Region       string
	DownloadTTL  time.Duration
}

type SecurityConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	CookieName        string
	SeedAdminEmail    string
	SeedAdminPassword string
}

// RateBudget is one fixed-window budget for a single sensitive action.
type RateBudget struct {
	Limit  int
	Window time.Duration
}

type RateLimitConfig struct {
	// Store selects the counter backend: "memory" for single-instance
	// deployments, "redis" when budgets must be shared across
	// horizontally scaled instances.
	Store          string
	Login          RateBudget
	Register       RateBudget
	PasswordChange RateBudget
	Booking        RateBudget
}

type LockoutConfig struct {
	MaxFailures int
	Duration    time.Duration
}

type AuditConfig struct {
	RetentionDays int
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Lockout          LockoutConfig
	Audit            AuditConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("APERTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate enforces the invariants that must hold before the server may
// serve authenticated routes. A missing session secret in production is
// fatal; falling back to the development secret there would silently
// break the security boundary.
func validate(cfg *AppConfig) error {
	if cfg.Security.SessionSecret == "" {
		if cfg.IsProduction() {
			return fmt.Errorf("security.sessionsecret is required in production")
		}
		cfg.Security.SessionSecret = devSessionSecret
	}
	if cfg.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.sessionttl must be positive")
	}
	if cfg.Lockout.MaxFailures <= 0 {
		return fmt.Errorf("lockout.maxfailures must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketassets", "aperture-assets")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.downloadttl", "15m")

	// Registered empty so env-only overrides reach Unmarshal.
	v.SetDefault("security.sessionsecret", "")
	v.SetDefault("security.seedadminemail", "")
	v.SetDefault("security.seedadminpassword", "")
	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.cookiename", "aperture_session")

	v.SetDefault("ratelimit.store", "memory")
	v.SetDefault("ratelimit.login.limit", 10)
	v.SetDefault("ratelimit.login.window", "1m")
	v.SetDefault("ratelimit.register.limit", 5)
	v.SetDefault("ratelimit.register.window", "1m")
	v.SetDefault("ratelimit.passwordchange.limit", 5)
	v.SetDefault("ratelimit.passwordchange.window", "15m")
	v.SetDefault("ratelimit.booking.limit", 3)
	v.SetDefault("ratelimit.booking.window", "1m")

	v.SetDefault("lockout.maxfailures", 5)
	v.SetDefault("lockout.duration", "15m")

	v.SetDefault("audit.retentiondays", 365)
}
