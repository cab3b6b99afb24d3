package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/util"
)

const (
	DefaultEndpoint = "https://breakout.wenwen-ai.com/v1/responses"
	DefaultModel    = "gpt-5"
	DefaultTimeout  = 600 * time.Second
)

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	// MaxFailures trips the breaker after this many consecutive upstream failures.
	MaxFailures uint32
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration
}

// Client implements llm.Client against an OpenAI-compatible responses or
// chat-completions endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewClient constructs a client. The API key is checked per call so the
// server can boot without one.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	maxFailures := cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// 4xx means the request was wrong, not that the upstream is down.
			var se *llm.StatusError
			if errors.As(err, &se) {
				return se.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Info("llm.breaker", map[string]any{"name": name, "from": from.String(), "to": to.String()})
		},
	})
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		cb:         cb,
	}
}

type requestBody struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// Complete sends messages and extracts the assistant text. MaxTokens is not
// forwarded; temperature is dropped for gpt-5 models, which reject it.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	if c.apiKey == "" {
		return llm.Completion{}, fmt.Errorf("%w: LLM_API_KEY not set", llm.ErrNotImplemented)
	}
	out, err := c.cb.Execute(func() (any, error) {
		return c.completeOnce(ctx, messages, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return llm.Completion{}, fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
		}
		return llm.Completion{}, err
	}
	return out.(llm.Completion), nil
}

func (c *Client) completeOnce(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	body := requestBody{Model: c.model, Messages: messages}
	if opts.Temperature != nil && !isGPT5(c.model) {
		body.Temperature = opts.Temperature
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Completion{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	telemetry.Info("llm.request", map[string]any{
		"endpoint": c.endpoint,
		"model":    c.model,
		"auth":     util.RedactBearer(c.apiKey),
		"messages": len(messages),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return llm.Completion{}, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return llm.Completion{}, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return llm.Completion{}, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return llm.Completion{}, fmt.Errorf("llm read body: %w", err)
	}

	fields := map[string]any{
		"endpoint":    c.endpoint,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fields["body"] = util.Truncate(string(raw), 500)
		telemetry.Error("llm.response", fields)
		return llm.Completion{}, &llm.StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	envelope, content, source := llm.ExtractContent(raw)
	fields["content_source"] = source
	fields["content_len"] = len(content)
	fields["preview"] = util.Truncate(content, 300)
	telemetry.Info("llm.response", fields)

	return llm.Completion{
		ID:      llm.StringField(envelope, "id", "unknown"),
		Model:   llm.StringField(envelope, "model", c.model),
		Content: content,
	}, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
