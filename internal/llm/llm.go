package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one role-tagged chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Options are sampling hints. Providers forward what they support.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
}

// Completion is the assistant text plus the provider's response metadata.
type Completion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content string `json:"content"`
}

// Client abstracts chat-completion providers.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (Completion, error)
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM provider not configured")
	// ErrTimeout marks a call aborted by its deadline.
	ErrTimeout        = errors.New("llm request timeout")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable    = errors.New("llm upstream unavailable")
)

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, messages []Message, opts Options) (Completion, error) {
	return Completion{}, ErrNotImplemented
}

// Float returns a pointer to v, for Options.Temperature.
func Float(v float64) *float64 { return &v }

var _ Client = PlaceholderClient{}
