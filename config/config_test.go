package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{
			"MAX_QUEUE_SIZE", "PROCESSING_TIMEOUT", "KEEPALIVE_INTERVAL",
			"HOST", "PORT", "CORS_ALLOWED_ORIGINS", "RESPONDER",
		} {
			t.Setenv(key, "")
		}

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 1000, cfg.MaxQueueSize)
		assert.Equal(t, 60*time.Second, cfg.ProcessingTimeout)
		assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval)
		assert.Equal(t, "0.0.0.0", cfg.Host)
		assert.Equal(t, "8000", cfg.Port)
		assert.Equal(t, "*", cfg.CORSAllowedOrigins)
		assert.Equal(t, "anthropic", cfg.Responder.Name)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("MAX_QUEUE_SIZE", "5")
		t.Setenv("PROCESSING_TIMEOUT", "2")
		t.Setenv("KEEPALIVE_INTERVAL", "7")
		t.Setenv("PORT", "9999")
		t.Setenv("RESPONDER", "echo")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.MaxQueueSize)
		assert.Equal(t, 2*time.Second, cfg.ProcessingTimeout)
		assert.Equal(t, 7*time.Second, cfg.KeepaliveInterval)
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, "echo", cfg.Responder.Name)
	})

	t.Run("InvalidNumbersRejected", func(t *testing.T) {
		t.Setenv("MAX_QUEUE_SIZE", "lots")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("NonPositiveValuesRejected", func(t *testing.T) {
		t.Setenv("MAX_QUEUE_SIZE", "0")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestResponderConfigIsConfigured(t *testing.T) {
	assert.True(t, ResponderConfig{Name: "echo"}.IsConfigured())
	assert.True(t, ResponderConfig{Name: "anthropic", AnthropicAPIKey: "sk-test"}.IsConfigured())
	assert.False(t, ResponderConfig{Name: "anthropic"}.IsConfigured())
	assert.True(t, ResponderConfig{Name: "openai", OpenAIAPIKey: "sk-test"}.IsConfigured())
	assert.False(t, ResponderConfig{Name: "openai"}.IsConfigured())
	assert.False(t, ResponderConfig{Name: "mystery"}.IsConfigured())
}
