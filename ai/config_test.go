package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, cfg.EmbeddingHost, cfg.GenerationHost)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-9)
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://example.com"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithGenerationModel("gpt-4o-mini"),
		WithAPIKey("secret"),
		WithTemperature(0.3),
	)
	require.NoError(t, cfg.Validate())

	// Normalize appends /v1 for OpenAI-compatible APIs.
	assert.Equal(t, "http://example.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://example.com/v1", cfg.GenerationHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestConfig_NormalizeTrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:9100/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:9100/v1", cfg.EmbeddingHost)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("missing embedding model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing generation model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.GenerationModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing hosts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("temperature out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Temperature = 3.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty api key normalized to none", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIKey = ""
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "none", cfg.APIKey)
	})
}
