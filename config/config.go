package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ResponderConfig selects and configures the AI backend.
type ResponderConfig struct {
	// Name selects the implementation: "anthropic", "openai" or "echo".
	Name string

	AnthropicAPIKey string
	AnthropicModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// IsConfigured returns true when the selected responder has what it needs.
func (c ResponderConfig) IsConfigured() bool {
	switch c.Name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "echo":
		return true
	}
	return false
}

type AppConfig struct {
	// Queue configuration
	MaxQueueSize      int
	ProcessingTimeout time.Duration

	// SSE configuration
	KeepaliveInterval time.Duration

	// Server configuration
	Host               string
	Port               string
	LogLevel           string
	CORSAllowedOrigins string
	Environment        string

	// Alerting (optional)
	AlertWebhookURL string
	ServerLogsURL   string

	Responder ResponderConfig
}

// LoadConfig reads configuration from the environment, loading a .env file
// first if one is present.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	maxQueueSize, err := intFromEnv("MAX_QUEUE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	processingTimeout, err := secondsFromEnv("PROCESSING_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	keepaliveInterval, err := secondsFromEnv("KEEPALIVE_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		MaxQueueSize:      maxQueueSize,
		ProcessingTimeout: processingTimeout,
		KeepaliveInterval: keepaliveInterval,

		Host:               stringFromEnv("HOST", "0.0.0.0"),
		Port:               stringFromEnv("PORT", "8000"),
		LogLevel:           stringFromEnv("LOG_LEVEL", "INFO"),
		CORSAllowedOrigins: stringFromEnv("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        stringFromEnv("ENVIRONMENT", "dev"),

		AlertWebhookURL: os.Getenv("ALERT_WEBHOOK_URL"),
		ServerLogsURL:   os.Getenv("SERVER_LOGS_URL"),

		Responder: ResponderConfig{
			Name:            stringFromEnv("RESPONDER", "anthropic"),
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:  stringFromEnv("ANTHROPIC_MODEL", "claude-sonnet-4-0"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
			OpenAIModel:     stringFromEnv("OPENAI_MODEL", "gpt-4o"),
		},
	}

	if cfg.MaxQueueSize <= 0 {
		return nil, fmt.Errorf("MAX_QUEUE_SIZE must be positive, got %d", cfg.MaxQueueSize)
	}
	if cfg.ProcessingTimeout <= 0 {
		return nil, fmt.Errorf("PROCESSING_TIMEOUT must be positive, got %s", cfg.ProcessingTimeout)
	}
	if cfg.KeepaliveInterval <= 0 {
		return nil, fmt.Errorf("KEEPALIVE_INTERVAL must be positive, got %s", cfg.KeepaliveInterval)
	}

	return cfg, nil
}

func stringFromEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func secondsFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}
