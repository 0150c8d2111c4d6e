package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	HTTPAddr string
	OwnerID  string
	Timezone string

	// Database
	DatabaseURL string

	// Redis (assistant conversation history; optional)
	RedisURL string

	// RabbitMQ (external event publishing; optional)
	RabbitMQURL string

	// EncryptionKey is a base64-encoded 32-byte key for token
	// encryption at rest. Tokens are stored in plaintext when empty.
	EncryptionKey string

	// LLM
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	PlannerModels    []string
	ExtractorModels  []string
	NLIModels        []string
	LLMCallTimeout   time.Duration
	LLMTotalBudget   time.Duration
	LLMEnabled       bool

	// Microsoft Graph
	GraphClientID     string
	GraphClientSecret string
	GraphTenant       string
	GraphRedirectURL  string
	GraphBaseURL      string

	// Scheduling
	DefaultSlotMinutes int
	MinFreeSlotMinutes int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("AAWO_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("AAWO_HTTP_ADDR", "127.0.0.1:8000"),
		OwnerID:  getEnv("AAWO_OWNER_ID", "00000000-0000-0000-0000-000000000001"),
		Timezone: getEnv("AAWO_TIMEZONE", "Asia/Seoul"),

		DatabaseURL: getEnv("DATABASE_URL", "aawo.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		EncryptionKey: getEnv("AAWO_ENCRYPTION_KEY", ""),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		PlannerModels:   getListEnv("AAWO_PLANNER_MODELS", []string{"gpt-4o-mini", "gpt-4o"}),
		ExtractorModels: getListEnv("AAWO_EXTRACTOR_MODELS", []string{"gpt-4o-mini"}),
		NLIModels:       getListEnv("AAWO_NLI_MODELS", []string{"gpt-4o-mini"}),
		LLMCallTimeout:  getDurationEnv("AAWO_LLM_CALL_TIMEOUT", 12*time.Second),
		LLMTotalBudget:  getDurationEnv("AAWO_LLM_TOTAL_BUDGET", 25*time.Second),
		LLMEnabled:      getBoolEnv("AAWO_LLM_ENABLED", true),

		GraphClientID:     getEnv("GRAPH_CLIENT_ID", ""),
		GraphClientSecret: getEnv("GRAPH_CLIENT_SECRET", ""),
		GraphTenant:       getEnv("GRAPH_TENANT", "common"),
		GraphRedirectURL:  getEnv("GRAPH_REDIRECT_URL", "http://localhost:8000/graph/callback"),
		GraphBaseURL:      getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),

		DefaultSlotMinutes: getIntEnv("AAWO_SLOT_MINUTES", 30),
		MinFreeSlotMinutes: getIntEnv("AAWO_MIN_FREE_SLOT_MINUTES", 15),
	}

	if cfg.OpenAIAPIKey == "" {
		cfg.LLMEnabled = false
	}

	return cfg, nil
}

// Validate checks settings that are required outside development.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid AAWO_TIMEZONE %q: %w", c.Timezone, err)
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

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	current := ""
	for i := 0; i < len(value); i++ {
		if value[i] == ',' {
			if current != "" {
				out = append(out, current)
			}
			current = ""
			continue
		}
		current += string(value[i])
	}
	if current != "" {
		out = append(out, current)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
