package answer

import (
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicketmedia/stumpsearch/model"
)

func TestNewGroqConfigFromEnv(t *testing.T) {
	t.Run("Missing API key fails", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "")

		_, err := NewGroqConfigFromEnv()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "GROQ_API_KEY")
	})

	t.Run("Defaults are applied", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "test-key")
		t.Setenv("GROQ_API_URL", "")
		t.Setenv("GROQ_MODEL", "")

		config, err := NewGroqConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "test-key", config.APIKey)
		assert.Equal(t, DefaultGroqBaseURL, config.BaseURL)
		assert.Equal(t, DefaultGroqModel, config.Model)
	})

	t.Run("Overrides are honored", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "test-key")
		t.Setenv("GROQ_API_URL", "http://localhost:9999/v1")
		t.Setenv("GROQ_MODEL", "test-model")

		config, err := NewGroqConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9999/v1", config.BaseURL)
		assert.Equal(t, "test-model", config.Model)
	})
}

func TestNewGroqGenerator(t *testing.T) {
	t.Run("Valid config", func(t *testing.T) {
		generator, err := NewGroqGenerator(&GroqConfig{APIKey: "test-key"})
		assert.NoError(t, err)
		assert.NotNil(t, generator)
	})

	t.Run("Missing API key fails", func(t *testing.T) {
		_, err := NewGroqGenerator(&GroqConfig{})
		assert.Error(t, err)

		_, err = NewGroqGenerator(nil)
		assert.Error(t, err)
	})
}

func TestClassifyGroqError(t *testing.T) {
	t.Run("Rate limiting is transient", func(t *testing.T) {
		err := classifyGroqError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests})
		assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	})

	t.Run("Server errors are transient", func(t *testing.T) {
		err := classifyGroqError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway})
		assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		err := classifyGroqError(&openai.APIError{HTTPStatusCode: http.StatusBadRequest})
		assert.ErrorIs(t, err, model.ErrInvalidResponse)
		assert.NotErrorIs(t, err, model.ErrServiceUnavailable)
	})

	t.Run("Transport failures are transient", func(t *testing.T) {
		err := classifyGroqError(fmt.Errorf("dial tcp: connection refused"))
		assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	})
}
