package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API.
type Client struct {
	models  generator
	model   string
	timeout time.Duration
}

// NewClient creates a Gemini-backed client.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(client.Models, model, timeout), nil
}

func newClient(models generator, model string, timeout time.Duration) *Client {
	if model = strings.TrimSpace(model); model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &Client{models: models, model: model, timeout: timeout}
}

// Complete maps system messages to the system instruction and the rest to
// user/model turns.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c == nil || c.models == nil {
		return llm.Completion{}, errors.New("gemini client is not initialized")
	}
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		cfg.Temperature = &t
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}
	if len(contents) == 0 {
		return llm.Completion{}, errors.New("no user content to send")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return llm.Completion{}, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return llm.Completion{}, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}

	out := llm.Completion{ID: resp.ResponseID, Model: resp.ModelVersion, Content: strings.TrimSpace(builder.String())}
	if out.ID == "" {
		out.ID = "unknown"
	}
	if out.Model == "" {
		out.Model = c.model
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":    "gemini",
		"model":       out.Model,
		"duration_ms": time.Since(start).Milliseconds(),
		"content_len": len(out.Content),
	})
	return out, nil
}

var _ llm.Client = (*Client)(nil)
