package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAI-compatible chat completion client.
// DeepSeek exposes an OpenAI-compatible API, so pointing BaseURL at
// https://api.deepseek.com with model "deepseek-chat" works unchanged.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string // empty means the official OpenAI endpoint
	Model       string
	Temperature float32 // default 0.7
	MaxTokens   int     // default 4096
}

// OpenAIModel implements Model on top of an OpenAI-compatible endpoint.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ Model = (*OpenAIModel)(nil)

// NewOpenAIModel creates a chat completion client from explicit options.
// The API key and model are required; nothing is read from the process
// environment.
func NewOpenAIModel(opts OpenAIOptions) (*OpenAIModel, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("llm: model name is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate sends the messages as a chat completion request and returns the
// first choice's content.
func (m *OpenAIModel) Generate(ctx context.Context, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    chatMessages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
