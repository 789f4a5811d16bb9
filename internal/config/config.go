package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server     ServerConfig     `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:",squash"`
	Redis      RedisConfig      `mapstructure:",squash"`
	Scheduler  SchedulerConfig  `mapstructure:",squash"`
	Logging    LoggingConfig    `mapstructure:",squash"`
	Backoffice BackofficeConfig `mapstructure:",squash"`
	Broker     BrokerConfig     `mapstructure:",squash"`
	Auth       AuthConfig       `mapstructure:",squash"`
	Business   BusinessConfig   `mapstructure:",squash"`
	Telemetry  TelemetryConfig  `mapstructure:",squash"`
	Health     HealthConfig     `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	CORSOrigins  string        `mapstructure:"CORS_ORIGINS"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

// DSN returns the connection string handed to the postgres driver.
func (d DatabaseConfig) DSN() string {
	return d.URL
}

type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL"`
}

type SchedulerConfig struct {
	SweepSchedule     string        `mapstructure:"SWEEP_SCHEDULE"`
	OutboxSchedule    string        `mapstructure:"OUTBOX_RELAY_SCHEDULE"`
	CleanupSchedule   string        `mapstructure:"NOTIFICATION_CLEANUP_SCHEDULE"`
	Timezone          string        `mapstructure:"SCHEDULER_TIMEZONE"`
	JobTimeout        time.Duration `mapstructure:"JOB_TIMEOUT"`
	RunSweepOnStartup bool          `mapstructure:"RUN_SWEEP_ON_STARTUP"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BackofficeConfig struct {
	URL               string        `mapstructure:"BACKOFFICE_URL"`
	APIKey            string        `mapstructure:"BACKOFFICE_API_KEY"`
	ParameterCacheTTL time.Duration `mapstructure:"PARAMETER_CACHE_TTL"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT"`
	RateLimit         float64       `mapstructure:"OUTBOUND_RATE_LIMIT"`
	RateBurst         int           `mapstructure:"OUTBOUND_RATE_BURST"`
}

type BrokerConfig struct {
	URL      string `mapstructure:"BROKER_URL"`
	User     string `mapstructure:"BROKER_USER"`
	Password string `mapstructure:"BROKER_PASSWORD"`
	VHost    string `mapstructure:"BROKER_VHOST"`
	Exchange string `mapstructure:"BROKER_EXCHANGE"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JobToken  string `mapstructure:"JOB_TOKEN"`
}

type BusinessConfig struct {
	LoanDurationDays             int           `mapstructure:"LOAN_DURATION_DAYS"`
	PickupWindow                 time.Duration `mapstructure:"PICKUP_WINDOW"`
	PickupExpiryEnabled          bool          `mapstructure:"PICKUP_EXPIRY_ENABLED"`
	DeadlineNoticeWindow         time.Duration `mapstructure:"DEADLINE_NOTICE_WINDOW"`
	CancellationWindow           time.Duration `mapstructure:"CANCELLATION_WINDOW"`
	CancellationPenaltyThreshold int           `mapstructure:"CANCELLATION_PENALTY_THRESHOLD"`
	NotificationRetention        time.Duration `mapstructure:"NOTIFICATION_RETENTION"`
	SanctionLateReturn           string        `mapstructure:"SANCTION_LATE_RETURN"`
	SanctionDamagedBook          string        `mapstructure:"SANCTION_DAMAGED_BOOK"`
	SanctionCancellation         string        `mapstructure:"SANCTION_CANCELLATION"`
	OutboxBatchSize              int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxMaxAttempts            int           `mapstructure:"OUTBOX_MAX_ATTEMPTS"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                    "8080",
	"SERVER_HOST":                    "0.0.0.0",
	"ENV":                            "development",
	"SERVER_READ_TIMEOUT":            "15s",
	"SERVER_WRITE_TIMEOUT":           "15s",
	"CORS_ORIGINS":                   "*",
	"DATABASE_URL":                   "",
	"DATABASE_MAX_OPEN_CONNS":        20,
	"DATABASE_MAX_IDLE_CONNS":        10,
	"DATABASE_CONN_MAX_LIFETIME":     "1h",
	"REDIS_URL":                      "redis://localhost:6379/0",
	"SWEEP_SCHEDULE":                 "0 */15 * * * *",
	"OUTBOX_RELAY_SCHEDULE":          "30 * * * * *",
	"NOTIFICATION_CLEANUP_SCHEDULE":  "0 0 3 * * *",
	"SCHEDULER_TIMEZONE":             "America/Argentina/Buenos_Aires",
	"JOB_TIMEOUT":                    "5m",
	"RUN_SWEEP_ON_STARTUP":           false,
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
	"BACKOFFICE_URL":                 "",
	"BACKOFFICE_API_KEY":             "",
	"PARAMETER_CACHE_TTL":            "60s",
	"HTTP_CLIENT_TIMEOUT":            "10s",
	"OUTBOUND_RATE_LIMIT":            10.0,
	"OUTBOUND_RATE_BURST":            5,
	"BROKER_URL":                     "",
	"BROKER_USER":                    "guest",
	"BROKER_PASSWORD":                "guest",
	"BROKER_VHOST":                   "/",
	"BROKER_EXCHANGE":                "sanctions.events",
	"JWT_SECRET":                     "",
	"JOB_TOKEN":                      "",
	"LOAN_DURATION_DAYS":             14,
	"PICKUP_WINDOW":                  "24h",
	"PICKUP_EXPIRY_ENABLED":          false,
	"DEADLINE_NOTICE_WINDOW":         "24h",
	"CANCELLATION_WINDOW":            "720h",
	"CANCELLATION_PENALTY_THRESHOLD": 3,
	"NOTIFICATION_RETENTION":         "720h",
	"SANCTION_LATE_RETURN":           "Devolucion tardia",
	"SANCTION_DAMAGED_BOOK":          "Libro danado",
	"SANCTION_CANCELLATION":          "Cancelacion de reserva",
	"OUTBOX_BATCH_SIZE":              50,
	"OUTBOX_MAX_ATTEMPTS":            10,
	"OTEL_EXPORTER_OTLP_ENDPOINT":    "",
	"OTEL_SERVICE_NAME":              "biblioteca",
	"HEALTH_CHECK_TIMEOUT":           "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Backoffice.URL == "" {
		return fmt.Errorf("BACKOFFICE_URL is required")
	}

	if c.Business.LoanDurationDays <= 0 {
		return fmt.Errorf("LOAN_DURATION_DAYS must be greater than 0")
	}

	if c.Business.CancellationPenaltyThreshold <= 0 {
		return fmt.Errorf("CANCELLATION_PENALTY_THRESHOLD must be greater than 0")
	}

	for name, d := range map[string]time.Duration{
		"PICKUP_WINDOW":          c.Business.PickupWindow,
		"DEADLINE_NOTICE_WINDOW": c.Business.DeadlineNoticeWindow,
		"CANCELLATION_WINDOW":    c.Business.CancellationWindow,
		"NOTIFICATION_RETENTION": c.Business.NotificationRetention,
		"HTTP_CLIENT_TIMEOUT":    c.Backoffice.HTTPTimeout,
		"JOB_TIMEOUT":            c.Scheduler.JobTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}

	if c.Backoffice.RateLimit <= 0 || c.Backoffice.RateBurst <= 0 {
		return fmt.Errorf("OUTBOUND_RATE_LIMIT and OUTBOUND_RATE_BURST must be greater than 0")
	}

	if c.Business.SanctionLateReturn == "" || c.Business.SanctionDamagedBook == "" || c.Business.SanctionCancellation == "" {
		return fmt.Errorf("sanction names must not be empty")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.IsProduction() && c.Auth.JobToken == "" {
		return fmt.Errorf("JOB_TOKEN is required in production")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Location returns the scheduler timezone, used for cron and for deadline copy.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
