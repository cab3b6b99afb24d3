package queue

import (
	"encoding/json"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
)

// MessageVersion is the payload version written by this build.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers. JobID is the
// correlation key between the API and the worker.
type Message struct {
	JobID      string        `json:"jobId"`
	RequestID  string        `json:"requestId"`
	EnqueuedAt string        `json:"enqueuedAt"`
	Version    int           `json:"version"`
	Messages   []llm.Message `json:"messages"`
	Options    llm.Options   `json:"options"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
