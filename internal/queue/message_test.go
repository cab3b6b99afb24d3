package queue

import (
	"strings"
	"testing"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
)

func TestEncodeMessageUsesJobIDKey(t *testing.T) {
	payload, err := EncodeMessage(Message{
		JobID:    "job_abc_1",
		Version:  MessageVersion,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Options:  llm.Options{Temperature: llm.Float(0.2), MaxTokens: 1200},
	})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	body := string(payload)
	for _, want := range []string{`"jobId":"job_abc_1"`, `"temperature":0.2`, `"maxTokens":1200`} {
		if !strings.Contains(body, want) {
			t.Fatalf("payload %s missing %s", body, want)
		}
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{bad")); err == nil {
		t.Fatalf("expected decode error")
	}
}
