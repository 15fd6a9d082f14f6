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

// Usage ledger backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds configuration for the service. It is built once at startup
// and passed by pointer; nothing mutates it afterwards.
type Config struct {
	HTTPPort      string
	AllowedOrigin string
	DailyLimit    int
	JWTSecret     []byte
	UsageBackend  string
	Database      DatabaseConfig
	Redis         RedisConfig
	Upstream      UpstreamConfig
	Log           LogConfig
	LoggingSink   LoggingSinkConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UpstreamConfig holds the text-generation API settings.
type UpstreamConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LogConfig controls the process log output.
type LogConfig struct {
	Level      string
	File       string // empty means stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoggingSinkConfig holds configuration for the S3-based audit sink
type LoggingSinkConfig struct {
	Enabled       bool          // Whether to enable S3 logging
	BufferSize    int           // In-memory queue size
	FlushSize     int           // Flush to S3 after this many records
	FlushInterval time.Duration // Flush to S3 after this duration
	S3Bucket      string        // S3 bucket name
	S3Region      string        // AWS region
	S3Prefix      string        // Prefix for S3 keys (e.g., "logs/")
	PodName       string        // Pod identifier for multi-pod deployments
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	val := strings.ToLower(os.Getenv(key))
	switch val {
	case "":
		return defaultValue
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// LoadDotEnv loads key/value pairs from the given files into the process
// environment. Variables that are already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	logLevel := "warning"
	if getEnvBool("LOCAL", false) {
		logLevel = "debug"
	}

	cfg := &Config{
		HTTPPort: getEnvString("HTTP_PORT", "8080"),
		// An unset origin matches nothing; the guard never falls back to "*".
		AllowedOrigin: strings.TrimSpace(os.Getenv("FRONTEND_URL")),
		DailyLimit:    getEnvInt("DAILY_LIMIT", 10),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		UsageBackend:  strings.ToLower(getEnvString("USAGE_BACKEND", BackendPostgres)),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Upstream: UpstreamConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: strings.TrimRight(getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			Model:   getEnvString("OPENAI_MODEL", "gpt-5-nano"),
		},
		Log: LogConfig{
			Level:      strings.ToLower(getEnvString("LOG_LEVEL", logLevel)),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvInt("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_FILE_MAX_AGE_DAYS", 28),
		},
		LoggingSink: LoggingSinkConfig{
			Enabled:       getEnvBool("LOGGING_SINK_ENABLED", false),
			BufferSize:    getEnvInt("LOGGING_SINK_BUFFER_SIZE", 10000),
			FlushSize:     getEnvInt("LOGGING_SINK_FLUSH_SIZE", 1000),
			FlushInterval: getEnvDuration("LOGGING_SINK_FLUSH_INTERVAL", 5*time.Minute),
			S3Bucket:      getEnvString("LOGGING_SINK_S3_BUCKET", ""),
			S3Region:      getEnvString("LOGGING_SINK_S3_REGION", "us-east-1"),
			S3Prefix:      getEnvString("LOGGING_SINK_S3_PREFIX", "logs/"),
			PodName:       getEnvString("POD_NAME", "validprompt-0"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.UsageBackend {
	case BackendPostgres, BackendSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s usage backend", c.UsageBackend)
		}
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown USAGE_BACKEND %q", c.UsageBackend)
	}

	if c.DailyLimit <= 0 {
		return fmt.Errorf("DAILY_LIMIT must be positive, got %d", c.DailyLimit)
	}

	if c.LoggingSink.Enabled && c.LoggingSink.S3Bucket == "" {
		return fmt.Errorf("LOGGING_SINK_S3_BUCKET is required when LOGGING_SINK_ENABLED is set")
	}

	return nil
}

// RequireUpstream reports an error when the upstream credential is missing.
// Only the serve command needs it; migrate and usage run without it.
func (c *Config) RequireUpstream() error {
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// AdminEnabled reports whether the admin API can be served.
func (c *Config) AdminEnabled() bool {
	return len(c.JWTSecret) > 0
}

// SQLDriver returns the database/sql driver name for the SQL backends.
func (c *Config) SQLDriver() string {
	if c.UsageBackend == BackendSQLite {
		return "sqlite"
	}
	return "postgres"
}
