package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/object"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

const (
	maxErrorLen  = 500
	storeTimeout = 5 * time.Second
)

// Task is one queued LLM call. JobID ties it back to the stored job.
type Task struct {
	JobID      string
	RequestID  string
	Messages   []llm.Message
	Options    llm.Options
	EnqueuedAt time.Time
}

// Runner executes tasks and records the outcome on the job.
type Runner struct {
	store   Store
	client  llm.Client
	archive object.Store
	now     func() time.Time
}

func NewRunner(store Store, client llm.Client) *Runner {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Runner{store: store, client: client, now: time.Now}
}

// Run performs the LLM call and moves the job to its terminal state. LLM
// failures are recorded on the job and are not returned; only store errors are.
// Tasks for finished or unknown jobs are dropped without calling the LLM.
func (r *Runner) Run(ctx context.Context, task Task) error {
	fields := map[string]any{"job_id": task.JobID, "request_id": task.RequestID}

	current, err := r.withStore(ctx, func(sctx context.Context) (Job, error) {
		return r.store.Get(sctx, task.JobID)
	})
	switch {
	case errors.Is(err, ErrNotFound):
		telemetry.Error("job.not_found", fields)
		return nil
	case err != nil:
		return err
	case current.Status.Terminal():
		fields["status"] = string(current.Status)
		telemetry.Info("job.already_terminal", fields)
		return nil
	}

	start := r.now()
	completion, err := r.client.Complete(ctx, task.Messages, task.Options)
	if err != nil {
		reason := FailureReason(err)
		fields["reason"] = reason
		fields["error"] = err.Error()
		telemetry.Error("job.failed", fields)
		job, ferr := r.withStore(ctx, func(sctx context.Context) (Job, error) {
			return r.store.Fail(sctx, task.JobID, SanitizeError(err))
		})
		if ferr == nil {
			metrics.IncJobFailed(reason)
		}
		return r.record(job, ferr)
	}

	fields["model"] = completion.Model
	fields["duration_ms"] = r.now().Sub(start).Milliseconds()
	fields["analysis_len"] = len(completion.Content)
	job, err := r.withStore(ctx, func(sctx context.Context) (Job, error) {
		return r.store.Complete(sctx, task.JobID, completion.Model, completion.Content)
	})
	if err != nil {
		return r.record(job, err)
	}
	telemetry.Info("job.completed", fields)
	metrics.IncJobCompleted()
	if !task.EnqueuedAt.IsZero() {
		metrics.ObserveJobDuration(r.now().Sub(task.EnqueuedAt))
	}
	r.archiveJob(ctx, job)
	return nil
}

// withStore runs a store call on a context that survives cancellation of ctx,
// so a job whose LLM call was cut short still reaches a terminal state.
func (r *Runner) withStore(ctx context.Context, fn func(context.Context) (Job, error)) (Job, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	return fn(sctx)
}

func (r *Runner) record(job Job, err error) error {
	if errors.Is(err, ErrAlreadyTerminal) {
		telemetry.Info("job.already_terminal", map[string]any{"job_id": job.ID, "status": string(job.Status)})
		return nil
	}
	return err
}

// FailureReason buckets an LLM error for metrics.
func FailureReason(err error) string {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, ErrQueueFull):
		return ReasonQueueFull
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, llm.ErrUnavailable):
		return "breaker_open"
	case errors.Is(err, llm.ErrNotImplemented):
		return "not_configured"
	case errors.As(err, &statusErr):
		return "upstream_status"
	default:
		return "error"
	}
}

// SanitizeError flattens err to a single line capped at 500 characters so it
// can be shown to clients polling the job.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if r := []rune(msg); len(r) > maxErrorLen {
		msg = string(r[:maxErrorLen])
	}
	return msg
}
