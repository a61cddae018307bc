package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `yaml:"app_env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// HTTP
	HTTPAddr         string        `yaml:"http_addr"`
	HTTPReadTimeout  time.Duration `yaml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `yaml:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `yaml:"http_idle_timeout"`

	// Ranking
	MaxTasks     int `yaml:"max_tasks"`
	SuggestLimit int `yaml:"suggest_limit"`

	// Redis ranking cache, disabled when RedisURL is empty
	RedisURL             string        `yaml:"redis_url"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	CacheBreakerFailures uint32        `yaml:"cache_breaker_failures"`
	CacheBreakerTimeout  time.Duration `yaml:"cache_breaker_timeout"`

	// RabbitMQ analysis events, disabled when RabbitMQURL is empty
	RabbitMQURL string `yaml:"rabbitmq_url"`

	// MCP
	MCPEnabled   bool   `yaml:"mcp_enabled"`
	MCPAddr      string `yaml:"mcp_addr"`
	MCPAuthToken string `yaml:"mcp_auth_token"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppEnv:    "development",
		LogLevel:  "info",
		LogFormat: "text",

		HTTPAddr:         "0.0.0.0:8000",
		HTTPReadTimeout:  15 * time.Second,
		HTTPWriteTimeout: 15 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,

		MaxTasks:     1000,
		SuggestLimit: 3,

		CacheTTL:             10 * time.Minute,
		CacheBreakerFailures: 5,
		CacheBreakerTimeout:  30 * time.Second,

		MCPEnabled: false,
		MCPAddr:    "0.0.0.0:8082",
	}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML file on top of the defaults. Environment variables
// still take precedence over the file.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.MaxTasks < 1 {
		return fmt.Errorf("MAX_TASKS must be positive, got %d", c.MaxTasks)
	}
	if c.SuggestLimit < 1 {
		return fmt.Errorf("SUGGEST_LIMIT must be positive, got %d", c.SuggestLimit)
	}
	if c.MCPEnabled && c.MCPAddr == "" {
		return fmt.Errorf("MCP_ADDR is required when MCP is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CacheEnabled reports whether a Redis cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// EventsEnabled reports whether analysis events go to RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.HTTPReadTimeout = getDurationEnv("HTTP_READ_TIMEOUT", c.HTTPReadTimeout)
	c.HTTPWriteTimeout = getDurationEnv("HTTP_WRITE_TIMEOUT", c.HTTPWriteTimeout)
	c.HTTPIdleTimeout = getDurationEnv("HTTP_IDLE_TIMEOUT", c.HTTPIdleTimeout)

	c.MaxTasks = getIntEnv("MAX_TASKS", c.MaxTasks)
	c.SuggestLimit = getIntEnv("SUGGEST_LIMIT", c.SuggestLimit)

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.CacheTTL = getDurationEnv("CACHE_TTL", c.CacheTTL)
	c.CacheBreakerFailures = uint32(max(getIntEnv("CACHE_BREAKER_FAILURES", int(c.CacheBreakerFailures)), 1))
	c.CacheBreakerTimeout = getDurationEnv("CACHE_BREAKER_TIMEOUT", c.CacheBreakerTimeout)

	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)

	c.MCPEnabled = getBoolEnv("MCP_ENABLED", c.MCPEnabled)
	c.MCPAddr = getEnv("MCP_ADDR", c.MCPAddr)
	c.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", c.MCPAuthToken)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
