package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingJobID indicates a message without a job id.
type ErrMissingJobID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingJobID) Error() string { return "missing job id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	JobID     string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process job"
	}
	return "process job: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return msg, meta, ErrMissingJobID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// TaskRunner executes a decoded task.
type TaskRunner interface {
	Run(ctx context.Context, task jobs.Task) error
}

// HandleMessage runs a parsed message.
func HandleMessage(ctx context.Context, runner TaskRunner, msg queue.Message) error {
	if runner == nil {
		return errors.New("job runner not configured")
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return ErrMissingJobID{RequestID: msg.RequestID}
	}
	if err := runner.Run(ctx, jobs.FromMessage(msg)); err != nil {
		return ErrProcess{JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
