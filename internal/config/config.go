package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Ticket store configuration
	Store StoreConfig

	// Database configuration
	Database DatabaseConfig

	// Outbound mail configuration
	Mail MailConfig

	// Reminder cycle configuration
	Reminder ReminderConfig

	// Summarizer configuration
	AI AIConfig

	// Redis configuration
	Redis RedisConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// CORS configuration
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// StoreConfig selects the ticket store
type StoreConfig struct {
	Driver     string // memory, sqlite, postgres
	SQLitePath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// MailConfig holds SMTP configuration
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Enabled reports whether real SMTP delivery is configured.
func (m MailConfig) Enabled() bool {
	return m.Password != ""
}

// ReminderConfig holds the reminder scheduler configuration
type ReminderConfig struct {
	Recipient   string
	Schedule    string
	SendTimeout time.Duration
	Concurrency int
}

// AIConfig holds summarizer configuration
type AIConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name            string
	Version         string
	Environment     string
	DefaultAssignee string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads the configuration from the current environment without validating it.
func FromEnv() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	defaultDriver := StoreMemory
	if databaseURL != "" {
		defaultDriver = StorePostgres
	}

	environment := getEnvOrDefault("APP_ENV", "development")
	defaultOrigins := []string{}
	if environment == "development" {
		defaultOrigins = []string{"*"}
	}

	emailUser := getEnvOrDefault("EMAIL_USER", "your.email@gmail.com")
	apiKey := os.Getenv("OPENAI_API_KEY")

	return &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "3000"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			StaticDir:       getEnvOrDefault("STATIC_DIR", "public"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnvOrDefault("STORE_DRIVER", defaultDriver)),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/tickets.db"),
		},
		Database: DatabaseConfig{
			URL:             databaseURL,
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntOrDefault("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getBoolOrDefault("DB_AUTO_MIGRATE", true),
		},
		Mail: MailConfig{
			Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     getIntOrDefault("SMTP_PORT", 587),
			User:     emailUser,
			Password: os.Getenv("EMAIL_PASS"),
		},
		Reminder: ReminderConfig{
			Recipient:   getEnvOrDefault("REMINDER_RECIPIENT", emailUser),
			Schedule:    getEnvOrDefault("REMINDER_SCHEDULE", "0 * * * *"),
			SendTimeout: getDurationOrDefault("REMINDER_SEND_TIMEOUT", 30*time.Second),
			Concurrency: getIntOrDefault("REMINDER_CONCURRENCY", 4),
		},
		AI: AIConfig{
			Enabled: getBoolOrDefault("AI_ENABLED", apiKey != ""),
			APIKey:  apiKey,
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout: getDurationOrDefault("AI_TIMEOUT", 20*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", defaultOrigins),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:            getEnvOrDefault("APP_NAME", "ticket-desk"),
			Version:         getEnvOrDefault("APP_VERSION", "dev"),
			Environment:     environment,
			DefaultAssignee: getEnvOrDefault("DEFAULT_ASSIGNEE", "Kevin"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres store")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER %q is not one of memory, sqlite, postgres", c.Store.Driver))
	}

	if _, err := cron.ParseStandard(c.Reminder.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("REMINDER_SCHEDULE is invalid: %v", err))
	}
	if c.Reminder.Recipient == "" {
		errs = append(errs, "REMINDER_RECIPIENT or EMAIL_USER is required")
	}
	if c.Reminder.Concurrency < 1 {
		errs = append(errs, "REMINDER_CONCURRENCY must be at least 1")
	}

	if c.AI.Enabled && c.AI.APIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required when AI_ENABLED is true")
	}

	// Security validations
	if c.App.Environment == "production" {
		if c.Store.Driver == StoreMemory {
			errs = append(errs, "STORE_DRIVER memory loses tickets on restart and is not allowed in production")
		}

		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Store: %s, DB: %s, Mail: %s@%s:%d pass=%s, AI: %v key=%s, Redis: %s, RateLimit: %v, Environment: %s}",
		c.Server.Addr(),
		c.Store.Driver,
		redactURL(c.Database.URL),
		c.Mail.User,
		c.Mail.Host,
		c.Mail.Port,
		redactSecret(c.Mail.Password),
		c.AI.Enabled,
		redactSecret(c.AI.APIKey),
		c.Redis.Addr,
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.LastIndex(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}

func redactSecret(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "[REDACTED]"
}
