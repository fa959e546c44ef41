package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Storage   StorageConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	OTEL      OTELConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int

	// PublicURL is the externally reachable base URL of the intake API,
	// used to mint direct upload and report download links
	PublicURL string

	// SSEURL is the externally reachable base URL of the notification server
	SSEURL string
}

// DatabaseConfig holds PostgreSQL configuration for the result record store
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration (queue, event bus, subscriptions)
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds processing queue configuration
type QueueConfig struct {
	Name            string
	PollSeconds     int
	ProcessingQueue string
}

// StorageConfig holds audio object store configuration
type StorageConfig struct {
	RootDir       string
	Bucket        string
	ReportsBucket string
	TempDir       string
}

// OpenAIConfig holds speech-to-text configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// AnthropicConfig holds structured-extraction model configuration
type AnthropicConfig struct {
	APIKey         string
	Model          string
	MaxTokens      int
	RateLimitRPM   int
	RateLimitBurst int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "0.0.0.0"),
			Port:      getEnvAsInt("SERVER_PORT", 8080),
			PublicURL: getEnv("API_PUBLIC_URL", "http://localhost:8080"),
			SSEURL:    getEnv("SSE_PUBLIC_URL", "http://localhost:8081"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinical_results"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Queue: QueueConfig{
			Name:            getEnv("QUEUE_NAME", "clinical-processing-queue"),
			PollSeconds:     getEnvAsInt("QUEUE_POLL_SECONDS", 20),
			ProcessingQueue: getEnv("QUEUE_PROCESSING_NAME", "clinical-processing-queue:inflight"),
		},
		Storage: StorageConfig{
			RootDir:       getEnv("STORAGE_ROOT", "/var/lib/transcriber/objects"),
			Bucket:        getEnv("STORAGE_BUCKET", "clinical-audio"),
			ReportsBucket: getEnv("STORAGE_REPORTS_BUCKET", "clinical-reports"),
			TempDir:       getEnv("STORAGE_TEMP", os.TempDir()),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Anthropic: AnthropicConfig{
			APIKey:         getEnv("ANTHROPIC_API_KEY", ""),
			Model:          getEnv("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			MaxTokens:      getEnvAsInt("ANTHROPIC_MAX_TOKENS", 8000),
			RateLimitRPM:   getEnvAsInt("ANTHROPIC_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("ANTHROPIC_RATE_LIMIT_BURST", 5),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "transcriber"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
