package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

type recorder struct {
	mu   sync.Mutex
	body map[string]any
	auth string
}

func (r *recorder) handler(t *testing.T, status int, resp string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		r.mu.Lock()
		r.body = payload
		r.auth = req.Header.Get("Authorization")
		r.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}
}

var testMessages = []llm.Message{
	{Role: llm.RoleSystem, Content: "sys"},
	{Role: llm.RoleUser, Content: "hi"},
}

func TestCompleteParsesResponsesEnvelope(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(t, http.StatusOK,
		`{"id":"resp_1","model":"gpt-5-2025","output":[{"content":[{"type":"output_text","text":"## 产品概览"}]}]}`))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "sk-test-1234567890", Model: "gpt-5"})
	got, err := client.Complete(context.Background(), testMessages, llm.Options{Temperature: llm.Float(0.2), MaxTokens: 1200})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.ID != "resp_1" || got.Model != "gpt-5-2025" || got.Content != "## 产品概览" {
		t.Fatalf("unexpected completion: %+v", got)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.auth != "Bearer sk-test-1234567890" {
		t.Fatalf("unexpected auth header: %q", rec.auth)
	}
	if rec.body["model"] != "gpt-5" {
		t.Fatalf("unexpected model: %v", rec.body["model"])
	}
	if _, ok := rec.body["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5")
	}
	if _, ok := rec.body["max_tokens"]; ok {
		t.Fatalf("max tokens should not be forwarded")
	}
	msgs, _ := rec.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", rec.body["messages"])
	}
}

func TestCompleteForwardsTemperatureAndDefaults(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "sk-test-1234567890", Model: "gpt-4o-mini"})
	got, err := client.Complete(context.Background(), testMessages, llm.Options{Temperature: llm.Float(0.2)})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.ID != "unknown" || got.Model != "gpt-4o-mini" || got.Content != "ok" {
		t.Fatalf("unexpected completion: %+v", got)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.body["temperature"] != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", rec.body["temperature"])
	}
}

func TestCompleteNon2xxReturnsStatusError(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec.handler(t, http.StatusTooManyRequests, `{"error":"slow down"}`))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "sk-test-1234567890"})
	_, err := client.Complete(context.Background(), testMessages, llm.Options{})
	var se *llm.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusTooManyRequests || se.Body != `{"error":"slow down"}` {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{Endpoint: server.URL, APIKey: "sk-test-1234567890", Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), testMessages, llm.Options{})
	if !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Complete(context.Background(), testMessages, llm.Options{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "sk-test-1234567890", MaxFailures: 2, OpenFor: time.Minute})
	for i := 0; i < 2; i++ {
		if _, err := client.Complete(context.Background(), testMessages, llm.Options{}); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}
	_, err := client.Complete(context.Background(), testMessages, llm.Options{})
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected open breaker error, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected upstream to be skipped once open, got %d calls", got)
	}
}
