package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// Groq chat-completions defaults (OpenAI-compatible API).
const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"

	defaultTemperature = 0.1
	defaultMaxTokens   = 512
	defaultTimeout     = 30 * time.Second

	systemPrompt = "You are a helpful assistant that helps users find cricket images."
)

// GenerateOptions carries per-call generation parameters. Zero values
// fall back to the generator defaults.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Generator produces an answer for a grounded prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
}

// GroqConfig holds the connection parameters for the Groq API
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewGroqConfigFromEnv reads the Groq configuration from environment
// variables. A .env file in the working directory is loaded first if
// present.
func NewGroqConfigFromEnv() (*GroqConfig, error) {
	// Ignore error, .env is optional
	_ = godotenv.Load()

	config := &GroqConfig{
		APIKey:  os.Getenv("GROQ_API_KEY"),
		BaseURL: os.Getenv("GROQ_API_URL"),
		Model:   os.Getenv("GROQ_MODEL"),
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing GROQ_API_KEY")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultGroqBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultGroqModel
	}

	return config, nil
}

// GroqGenerator is a chat-completions client for the Groq API
type GroqGenerator struct {
	client *openai.Client
	model  string
}

// NewGroqGenerator creates a new Groq chat client
func NewGroqGenerator(config *GroqConfig) (*GroqGenerator, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("missing Groq API key")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	} else {
		clientConfig.BaseURL = DefaultGroqBaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: defaultTimeout}

	modelID := config.Model
	if modelID == "" {
		modelID = DefaultGroqModel
	}

	return &GroqGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  modelID,
	}, nil
}

// Generate sends the prompt as a single user message with the fixed
// system prompt and returns the completion text
func (g *GroqGenerator) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	modelID := g.model
	maxTokens := defaultMaxTokens
	temperature := float32(defaultTemperature)
	if opts != nil {
		if opts.Model != "" {
			modelID = opts.Model
		}
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			temperature = opts.Temperature
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classifyGroqError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", helper.NewError("chat completion", fmt.Errorf("empty completion: %w", model.ErrInvalidResponse))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyGroqError maps API and transport failures onto the error
// kinds the composer retries on. Rate limiting and 5xx are transient;
// other API errors are not worth retrying.
func classifyGroqError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return helper.NewError("chat completion", fmt.Errorf("%v: %w", err, model.ErrServiceUnavailable))
		}
		return helper.NewError("chat completion", fmt.Errorf("%v: %w", err, model.ErrInvalidResponse))
	}

	// Transport-level failure, connection refused, timeout
	return helper.NewError("chat completion", fmt.Errorf("%v: %w", err, model.ErrServiceUnavailable))
}
