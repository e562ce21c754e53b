package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Stats registry backends.
const (
	StatsBackendAuto     = "auto"
	StatsBackendMemory   = "memory"
	StatsBackendPostgres = "postgres"
	StatsBackendRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Stats        StatsConfig
	Catalog      CatalogConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	LoginRatePerMinute    int
	LoginBurst            int
}

// StatsConfig configures the endpoint statistics registry.
type StatsConfig struct {
	Backend       string
	TimeoutMillis int
	CaseSensitive bool
}

// CatalogConfig holds product catalog behavior.
type CatalogConfig struct {
	LowStockThreshold    int
	DefaultPageSize      int
	MaxPageSize          int
	LowStockSweepMinutes int
	SeedCategories       bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "catalog-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginRatePerMinute:    getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:            getEnvAsInt("AUTH_LOGIN_BURST", 5),
		},
		Stats: StatsConfig{
			Backend:       strings.ToLower(getEnv("STATS_BACKEND", StatsBackendAuto)),
			TimeoutMillis: getEnvAsInt("STATS_TIMEOUT_MS", 500),
			CaseSensitive: getEnvAsBool("STATS_SEARCH_CASE_SENSITIVE", false),
		},
		Catalog: CatalogConfig{
			LowStockThreshold:    getEnvAsInt("CATALOG_LOW_STOCK_THRESHOLD", 10),
			DefaultPageSize:      getEnvAsInt("CATALOG_DEFAULT_PAGE_SIZE", 5),
			MaxPageSize:          getEnvAsInt("CATALOG_MAX_PAGE_SIZE", 100),
			LowStockSweepMinutes: getEnvAsInt("CATALOG_LOW_STOCK_SWEEP_MINUTES", 60),
			SeedCategories:       getEnvAsBool("CATALOG_SEED_CATEGORIES", true),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Stats.Backend {
	case StatsBackendAuto, StatsBackendMemory, StatsBackendPostgres:
	case StatsBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("STATS_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("invalid STATS_BACKEND %q", c.Stats.Backend)
	}
	if c.Stats.Backend == StatsBackendPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("STATS_BACKEND=postgres requires POSTGRES_DSN")
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds a single registry call.
func (s StatsConfig) Timeout() time.Duration {
	if s.TimeoutMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(s.TimeoutMillis) * time.Millisecond
}

// SweepInterval returns how often the low-stock sweeper runs; zero disables it.
func (c CatalogConfig) SweepInterval() time.Duration {
	if c.LowStockSweepMinutes <= 0 {
		return 0
	}
	return time.Duration(c.LowStockSweepMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
