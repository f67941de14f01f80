// Package llm defines the text-generation collaborator used by the
// research workflow, with clients for OpenAI-compatible endpoints
// (including DeepSeek) and an adapter for langchaingo models.
package llm

import (
	"context"
	"errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged turn in a generation request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrEmptyResponse is returned when a backend produced no content.
// Backends must never report success with an empty reply.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Model generates a completion for an ordered sequence of messages.
// Implementations must surface backend failures (timeouts, quota,
// malformed input) as errors rather than empty strings.
type Model interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// System is a convenience constructor for a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is a convenience constructor for a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant is a convenience constructor for an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
