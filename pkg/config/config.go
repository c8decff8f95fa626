package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Session store configuration
	SessionStore SessionStoreConfig

	// Event log sink configuration
	EventLog EventLogConfig

	// Notification configuration
	Notification NotificationConfig

	// Observability configuration
	Observability ObservabilityConfig

	// ProjectsDir is the directory holding per-project YAML auth configs
	ProjectsDir string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SessionStoreConfig selects and configures the session token store
type SessionStoreConfig struct {
	// Type is "redis" or "memory"
	Type string

	Redis session.RedisConfig

	// Memory store settings
	MemorySize    int
	SweepSchedule string
}

// EventLogConfig configures the event log sinks. Any combination may be
// enabled; entries fan out to every enabled sink behind one async queue.
type EventLogConfig struct {
	// QueueSize bounds the async queue in front of the sinks
	QueueSize int

	// File sink
	FileEnabled  bool
	FileDir      string
	FileRotate   bool
	FileMaxSize  int64
	FileMaxFiles int

	// Postgres sink
	PostgresEnabled bool
	PostgresURL     string

	// S3 sink
	S3Enabled      bool
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	S3BatchSize    int
	S3Interval     time.Duration
}

// NotificationConfig configures the notification channel and catalog
type NotificationConfig struct {
	// Channel is "mock" or "webhook"
	Channel      string
	WebhookURL   string
	MaxReceivers int
	Workers      int

	// CatalogDir holds per-language YAML message templates
	CatalogDir   string
	CatalogWatch bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		SessionStore:  loadSessionStoreConfig(),
		EventLog:      loadEventLogConfig(),
		Notification:  loadNotificationConfig(),
		Observability: loadObservabilityConfig(),
		ProjectsDir:   getEnv("GATEHOUSE_PROJECTS_DIR", "configs/projects"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GATEHOUSE_HOST", "0.0.0.0"),
		Port:            getEnv("GATEHOUSE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GATEHOUSE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("GATEHOUSE_HEALTH_PORT", "9090"),
	}
}

// loadSessionStoreConfig loads session store configuration from environment
func loadSessionStoreConfig() SessionStoreConfig {
	return SessionStoreConfig{
		Type: getEnv("GATEHOUSE_SESSION_STORE", "memory"),
		Redis: session.RedisConfig{
			URL:        getEnv("GATEHOUSE_REDIS_URL", ""),
			Password:   getEnv("GATEHOUSE_REDIS_PASSWORD", ""),
			DB:         getEnvInt("GATEHOUSE_REDIS_DB", -1),
			MaxRetries: getEnvInt("GATEHOUSE_REDIS_MAX_RETRIES", 0),
			PoolSize:   getEnvInt("GATEHOUSE_REDIS_POOL_SIZE", 0),
		},
		MemorySize:    getEnvInt("GATEHOUSE_SESSION_CACHE_SIZE", 10000),
		SweepSchedule: getEnv("GATEHOUSE_SESSION_SWEEP_SCHEDULE", "@every 5m"),
	}
}

// loadEventLogConfig loads event log sink configuration from environment
func loadEventLogConfig() EventLogConfig {
	return EventLogConfig{
		QueueSize: getEnvInt("GATEHOUSE_EVENTLOG_QUEUE_SIZE", 1024),

		FileEnabled:  getEnvBool("GATEHOUSE_EVENTLOG_FILE_ENABLED", true),
		FileDir:      getEnv("GATEHOUSE_EVENTLOG_FILE_DIR", "logs"),
		FileRotate:   getEnvBool("GATEHOUSE_EVENTLOG_FILE_ROTATE", true),
		FileMaxSize:  getEnvInt64("GATEHOUSE_EVENTLOG_FILE_MAX_SIZE", 0),
		FileMaxFiles: getEnvInt("GATEHOUSE_EVENTLOG_FILE_MAX_FILES", 0),

		PostgresEnabled: getEnvBool("GATEHOUSE_EVENTLOG_POSTGRES_ENABLED", false),
		PostgresURL:     getEnv("GATEHOUSE_EVENTLOG_POSTGRES_URL", ""),

		S3Enabled:      getEnvBool("GATEHOUSE_EVENTLOG_S3_ENABLED", false),
		S3Bucket:       getEnv("GATEHOUSE_EVENTLOG_S3_BUCKET", ""),
		S3Prefix:       getEnv("GATEHOUSE_EVENTLOG_S3_PREFIX", "events"),
		S3Region:       getEnv("GATEHOUSE_EVENTLOG_S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("GATEHOUSE_EVENTLOG_S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("GATEHOUSE_EVENTLOG_S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("GATEHOUSE_EVENTLOG_S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnvBool("GATEHOUSE_EVENTLOG_S3_USE_PATH_STYLE", false),
		S3BatchSize:    getEnvInt("GATEHOUSE_EVENTLOG_S3_BATCH_SIZE", 0),
		S3Interval:     getEnvDuration("GATEHOUSE_EVENTLOG_S3_INTERVAL", 0),
	}
}

// loadNotificationConfig loads notification configuration from environment
func loadNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Channel:      getEnv("GATEHOUSE_NOTIFICATION_CHANNEL", "mock"),
		WebhookURL:   getEnv("GATEHOUSE_NOTIFICATION_WEBHOOK_URL", ""),
		MaxReceivers: getEnvInt("GATEHOUSE_NOTIFICATION_MAX_RECEIVERS", 0),
		Workers:      getEnvInt("GATEHOUSE_NOTIFICATION_WORKERS", 4),
		CatalogDir:   getEnv("GATEHOUSE_NOTIFICATION_CATALOG_DIR", "configs/messages"),
		CatalogWatch: getEnvBool("GATEHOUSE_NOTIFICATION_CATALOG_WATCH", false),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("GATEHOUSE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("GATEHOUSE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate session store config
	switch c.SessionStore.Type {
	case "memory":
		if c.SessionStore.MemorySize <= 0 {
			return fmt.Errorf("session cache size must be positive for memory store")
		}
	case "redis":
		if c.SessionStore.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for redis session store")
		}
	default:
		return fmt.Errorf("invalid session store type: %s (must be memory or redis)", c.SessionStore.Type)
	}

	// Validate event log sinks
	if c.EventLog.FileEnabled && c.EventLog.FileDir == "" {
		return fmt.Errorf("file directory is required for the file event log sink")
	}
	if c.EventLog.PostgresEnabled && c.EventLog.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required for the postgres event log sink")
	}
	if c.EventLog.S3Enabled && c.EventLog.S3Bucket == "" {
		return fmt.Errorf("S3 bucket is required for the S3 event log sink")
	}

	// Validate notification config
	switch c.Notification.Channel {
	case "mock":
	case "webhook":
		if c.Notification.WebhookURL == "" {
			return fmt.Errorf("webhook URL is required for the webhook notification channel")
		}
	default:
		return fmt.Errorf("invalid notification channel: %s (must be mock or webhook)", c.Notification.Channel)
	}

	if c.ProjectsDir == "" {
		return fmt.Errorf("projects directory is required")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
