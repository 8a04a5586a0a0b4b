package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	Store       StoreConfig
	Postgres    PostgresConfig
	Mongo       MongoConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	Alerts      AlertsConfig
	Mail        MailConfig
	Lifecycle   LifecycleConfig
	Chat        ChatConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	APIPrefix       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	AuthRateLimit   float64
}

// StoreConfig selects the persistence backend: mongo, postgres or memory.
type StoreConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the pgx connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode, p.MaxConns)
}

type MongoConfig struct {
	URI            string
	Database       string
	Transactions   bool
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level        string
	File         string
	RotationTime time.Duration
	MaxAge       time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type TracingConfig struct {
	JaegerEndpoint string
}

// AlertsConfig enables the asynq e-mail pipeline when RedisAddr is set.
type AlertsConfig struct {
	RedisAddr   string
	Concurrency int
	AppURL      string
}

type MailConfig struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	ReplyTo      string
	PlunkAPIKey  string
	PlunkAPIURL  string
}

type LifecycleConfig struct {
	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration
}

type ChatConfig struct {
	PushEnabled bool
}

var ErrMissingJWTSecret = errors.New("config: JWT_SECRET is not configured")

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads the configuration without validating it. Processes that never
// issue tokens, like the alert worker, use it directly.
func Read() *Config {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "fixpoint-api"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			Env:             getEnv("APP_ENV", "development"),
			APIPrefix:       getEnv("API_PREFIX", "/api"),
			AllowedOrigins:  getEnvAsList("CORS_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			AuthRateLimit:   getEnvAsFloat("AUTH_RATE_LIMIT", 20),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "fixpoint"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DB", "fixpoint"),
			Transactions:   getEnvAsBool("MONGO_TRANSACTIONS", false),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvAsDuration("JWT_TTL", 30*24*time.Hour),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			File:         getEnv("LOG_FILE", ""),
			RotationTime: getEnvAsDuration("LOG_ROTATION", 24*time.Hour),
			MaxAge:       getEnvAsDuration("LOG_MAX_AGE", 7*24*time.Hour),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Tracing: TracingConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Alerts: AlertsConfig{
			RedisAddr:   getEnv("REDIS_ADDR", ""),
			Concurrency: getEnvAsInt("ALERTS_CONCURRENCY", 5),
			AppURL:      strings.TrimRight(getEnv("APP_URL", "http://localhost:5173"), "/"),
		},
		Mail: MailConfig{
			Provider:     strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("SMTP_FROM", getEnv("PLUNK_FROM", "")),
			ReplyTo:      getEnv("MAIL_REPLY_TO", ""),
			PlunkAPIKey:  getEnv("PLUNK_API_KEY", ""),
			PlunkAPIURL:  getEnv("PLUNK_API_URL", "https://api.useplunk.com/v1/send"),
		},
		Lifecycle: LifecycleConfig{
			ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", time.Minute),
			ReconcileGrace:    getEnvAsDuration("RECONCILE_GRACE", 30*time.Second),
		},
		Chat: ChatConfig{
			PushEnabled: getEnvAsBool("CHAT_PUSH", true),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	switch c.Store.Driver {
	case "mongo", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Mail.Provider {
	case "smtp", "plunk", "log":
	default:
		return fmt.Errorf("config: unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
