package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// LangChainModel adapts a langchaingo llms.Model to the Model interface,
// so any provider langchaingo supports can back the workflow.
type LangChainModel struct {
	model llms.Model
}

var _ Model = (*LangChainModel)(nil)

// NewLangChainModel wraps an existing langchaingo model.
func NewLangChainModel(model llms.Model) *LangChainModel {
	return &LangChainModel{model: model}
}

// Generate converts the messages to langchaingo content and returns the
// first choice of the response.
func (m *LangChainModel) Generate(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.MessageContent{
			Role:  chatMessageType(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	resp, err := m.model.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("llm: generate content failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
