package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/fetcher"
	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// PageFetcher loads and cleans a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Page, error)
}

// Service starts analyses and reads their jobs.
type Service struct {
	Fetcher    PageFetcher
	Store      jobs.Store
	Dispatcher jobs.Dispatcher
	Now        func() time.Time
}

// Started is returned to the caller as soon as the job is queued.
type Started struct {
	JobID   string
	URL     string
	Title   string
	Snippet string
}

// Start validates the URL, fetches the page, creates a job and hands the LLM
// call to the dispatcher without waiting for it.
func (s *Service) Start(ctx context.Context, url, requestID string) (Started, error) {
	if err := fetcher.ValidateURL(url); err != nil {
		return Started{}, err
	}
	page, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return Started{}, err
	}
	snippet := fetcher.Snippet(page.Text)

	job, err := s.Store.Create(ctx, url)
	if err != nil {
		return Started{}, fmt.Errorf("create job: %w", err)
	}
	metrics.IncJobCreated()

	task := jobs.Task{
		JobID:      job.ID,
		RequestID:  requestID,
		Messages:   BuildMessages(url, page.Title, snippet),
		Options:    Options(),
		EnqueuedAt: s.now(),
	}
	if err := s.Dispatcher.Dispatch(ctx, task); err != nil {
		reason := jobs.ReasonQueueFull
		if !errors.Is(err, jobs.ErrQueueFull) {
			reason = jobs.SanitizeError(err)
		}
		metrics.IncJobFailed(jobs.FailureReason(err))
		if _, ferr := s.Store.Fail(ctx, job.ID, reason); ferr != nil {
			telemetry.Error("analyze.fail_job", map[string]any{"job_id": job.ID, "error": ferr.Error()})
		}
		return Started{JobID: job.ID}, fmt.Errorf("dispatch job %s: %w", job.ID, err)
	}

	telemetry.Info("analyze.started", map[string]any{
		"job_id":      job.ID,
		"request_id":  requestID,
		"url":         url,
		"title":       page.Title,
		"snippet_len": len(snippet),
	})
	return Started{JobID: job.ID, URL: url, Title: page.Title, Snippet: snippet}, nil
}

// Get returns the job with the given id.
func (s *Service) Get(ctx context.Context, id string) (jobs.Job, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
