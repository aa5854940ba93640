package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Logging    LoggingConfig
	Engine     EngineConfig
	Scheduler  SchedulerConfig
	Regulatory RegulatoryConfig
	Archive    ArchiveConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Environment     string
	RateLimit       float64
	RateBurst       int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// EngineConfig tunes the compliance engine
type EngineConfig struct {
	LoadBuiltins    bool
	RulesDir        string
	ReportWorkers   int
	EventBufferSize int
	DefaultStrict   bool
}

// SchedulerConfig controls periodic report generation
type SchedulerConfig struct {
	Enabled    bool
	Schedule   string
	Predictive bool
}

// RegulatoryConfig configures the regulatory change tracker and predictor
type RegulatoryConfig struct {
	ChangesFile  string
	LookAhead    time.Duration
	OpenAIAPIKey string
	OpenAIModel  string
}

// ArchiveConfig configures where generated reports are archived
type ArchiveConfig struct {
	// Backend is s3, gcs or empty for none
	Backend string
	Bucket  string
	Prefix  string

	// S3; static keys are optional and fall back to the default AWS chain
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// GCS and BigQuery
	CredentialsFile string

	// BigQuery summary export; disabled when Dataset is empty
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimit:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateBurst:       getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "lexaudit"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./lexaudit.db"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 12*time.Hour),
			Issuer:            getEnv("JWT_ISSUER", "lexaudit"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			LoadBuiltins:    getEnvAsBool("ENGINE_LOAD_BUILTINS", true),
			RulesDir:        getEnv("ENGINE_RULES_DIR", ""),
			ReportWorkers:   getEnvAsInt("ENGINE_REPORT_WORKERS", 4),
			EventBufferSize: getEnvAsInt("ENGINE_EVENT_BUFFER", 256),
			DefaultStrict:   getEnvAsBool("ENGINE_DEFAULT_STRICT", false),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvAsBool("SCHEDULER_ENABLED", false),
			Schedule:   getEnv("SCHEDULER_SCHEDULE", "0 6 * * 1"),
			Predictive: getEnvAsBool("SCHEDULER_PREDICTIVE", true),
		},
		Regulatory: RegulatoryConfig{
			ChangesFile:  getEnv("REGULATORY_CHANGES_FILE", ""),
			LookAhead:    getEnvAsDuration("REGULATORY_LOOKAHEAD", 365*24*time.Hour),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Archive: ArchiveConfig{
			Backend:         getEnv("ARCHIVE_BACKEND", ""),
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Prefix:          getEnv("ARCHIVE_PREFIX", "reports"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("ARCHIVE_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
			BigQueryDataset: getEnv("BIGQUERY_DATASET", ""),
			BigQueryTable:   getEnv("BIGQUERY_TABLE", "compliance_reports"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Server.Environment == "production" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Engine.ReportWorkers < 1 {
		return fmt.Errorf("ENGINE_REPORT_WORKERS must be at least 1, got %d", c.Engine.ReportWorkers)
	}
	if c.Engine.EventBufferSize < 1 {
		return fmt.Errorf("ENGINE_EVENT_BUFFER must be at least 1, got %d", c.Engine.EventBufferSize)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}

	switch c.Archive.Backend {
	case "":
	case "s3", "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("ARCHIVE_BUCKET is required for the %s archive backend", c.Archive.Backend)
		}
	default:
		return fmt.Errorf("unsupported archive backend: %s", c.Archive.Backend)
	}
	if c.Archive.BigQueryDataset != "" && c.Archive.BigQueryProject == "" {
		return fmt.Errorf("BIGQUERY_PROJECT is required when BIGQUERY_DATASET is set")
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
