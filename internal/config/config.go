package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Booking      BookingConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
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
	Addr     string
	Password string
	DB       int
	QueueDB  int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines how admin bearer tokens are verified.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// BookingConfig tunes the booking engine.
type BookingConfig struct {
	CodeMaxAttempts      int
	PhoneCountryCode     string
	ScheduleCacheSeconds int
	StoreTimeoutSeconds  int
	Timezone             string
}

// NotificationConfig holds SMS delivery settings.
type NotificationConfig struct {
	SMSWebhookURL     string
	SMSWebhookToken   string
	WorkerConcurrency int
	MaxRetry          int
}

// RateLimitConfig bounds public booking traffic per client.
type RateLimitConfig struct {
	Enabled       bool
	Requests      int
	WindowSeconds int
	FailOpen      bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	queueDB, err := strconv.Atoi(getEnv("REDIS_QUEUE_DB", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_QUEUE_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "appointment-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 15),
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
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			QueueDB:  queueDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Booking: BookingConfig{
			CodeMaxAttempts:      getEnvAsInt("BOOKING_CODE_MAX_ATTEMPTS", 20),
			PhoneCountryCode:     getEnv("BOOKING_PHONE_COUNTRY_CODE", "90"),
			ScheduleCacheSeconds: getEnvAsInt("BOOKING_SCHEDULE_CACHE_SECONDS", 300),
			StoreTimeoutSeconds:  getEnvAsInt("BOOKING_STORE_TIMEOUT_SECONDS", 5),
			Timezone:             getEnv("BOOKING_TIMEZONE", "Europe/Istanbul"),
		},
		Notification: NotificationConfig{
			SMSWebhookURL:     getEnv("NOTIFY_SMS_WEBHOOK_URL", ""),
			SMSWebhookToken:   os.Getenv("NOTIFY_SMS_WEBHOOK_TOKEN"),
			WorkerConcurrency: getEnvAsInt("NOTIFY_WORKER_CONCURRENCY", 5),
			MaxRetry:          getEnvAsInt("NOTIFY_MAX_RETRY", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			FailOpen:      getEnvAsBool("RATE_LIMIT_FAIL_OPEN", true),
		},
	}

	return cfg, nil
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

// ScheduleCacheTTL returns how long schedule rows stay cached.
func (b BookingConfig) ScheduleCacheTTL() time.Duration {
	if b.ScheduleCacheSeconds <= 0 {
		return 0
	}
	return time.Duration(b.ScheduleCacheSeconds) * time.Second
}

// StoreTimeout bounds each store call made by the booking engine.
func (b BookingConfig) StoreTimeout() time.Duration {
	if b.StoreTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(b.StoreTimeoutSeconds) * time.Second
}

// Location resolves the wall-clock zone appointment dates and times are expressed in.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
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
