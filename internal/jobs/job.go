package jobs

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"
)

// Status is the lifecycle state of an analysis job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one asynchronous page analysis.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	URL       string    `json:"url,omitempty"`
	Model     string    `json:"model,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound        = errors.New("job not found")
	ErrAlreadyTerminal = errors.New("job already finished")
	ErrQueueFull       = errors.New("job queue full")
)

// Failure reasons stored on jobs and reported to metrics.
const (
	ReasonQueueFull = "queue_full"
)

// Store persists jobs. Complete and Fail only move a pending job; a terminal
// job is left untouched and ErrAlreadyTerminal is returned.
type Store interface {
	Create(ctx context.Context, url string) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Complete(ctx context.Context, id, model, analysis string) (Job, error)
	Fail(ctx context.Context, id, message string) (Job, error)
}

// NewID returns job_<base36 unix millis>_<random base36>.
func NewID(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<40))
	suffix := "0"
	if err == nil {
		suffix = n.Text(36)
	}
	return "job_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}

func newPending(now time.Time, url string) Job {
	now = now.UTC()
	return Job{ID: NewID(now), Status: StatusPending, URL: url, CreatedAt: now, UpdatedAt: now}
}

func finish(job Job, now time.Time, status Status, model, analysis, message string) (Job, error) {
	if job.Status.Terminal() {
		return job, ErrAlreadyTerminal
	}
	job.Status = status
	job.UpdatedAt = now.UTC()
	if status == StatusCompleted {
		job.Model = model
		job.Analysis = analysis
	} else {
		job.Error = message
	}
	return job, nil
}
