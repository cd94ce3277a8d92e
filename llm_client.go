package chatpod

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Define a custom type for context keys
type ContextKey string

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

var _ LanguageModel = &LLM{}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int64
}

// LLMConfig returns the provider settings with the fixed sampling parameters.
func (c *Config) LLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:         c.OpenAIAPIKey,
		BaseURL:        c.OpenAIBaseURL,
		Model:          c.Model,
		EmbeddingModel: c.EmbeddingModel,
		Temperature:    DefaultTemperature,
		MaxTokens:      DefaultMaxTokens,
	}
}

// LLM is a wrapper around the openai client that pins the sampling parameters and
// tags requests with the session they belong to.
type LLM struct {
	config LLMConfig
	client openai.Client
}

// NewLLM builds the client. The SDK's automatic retries are turned off: a failed call
// may already have been billed, so retrying is left to the caller.
func NewLLM(config LLMConfig) *LLM {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultEmbeddingModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &LLM{
		config: config,
		client: openai.NewClient(opts...),
	}
}

func (c *LLM) Model() string {
	return c.config.Model
}

func injectIdentifiers(ctx context.Context, opts []option.RequestOption) []option.RequestOption {
	if sessionID, ok := ctx.Value(ContextKey("sessionID")).(string); ok && sessionID != "" {
		opts = append(opts, option.WithJSONSet("metadata.session_id", sessionID))
	}
	return opts
}

func (c *LLM) Complete(ctx context.Context, messages *MessageList) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    messages.All(),
		Model:       openai.ChatModel(c.config.Model),
		Temperature: openai.Float(c.config.Temperature),
		MaxTokens:   openai.Int(c.config.MaxTokens),
		Store:       openai.Bool(true),
	}
	completion, err := c.client.Chat.Completions.New(ctx, params, injectIdentifiers(ctx, nil)...)
	if err != nil {
		return nil, &CompletionError{Model: c.config.Model, Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &CompletionError{Model: c.config.Model, Err: errors.New("no choices returned")}
	}

	model := completion.Model
	if model == "" {
		model = c.config.Model
	}
	return &Completion{
		Text:  completion.Choices[0].Message.Content,
		Model: model,
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
		},
	}, nil
}

func (c *LLM) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response has no data")
	}
	return toFloat32(resp.Data[0].Embedding), nil
}
