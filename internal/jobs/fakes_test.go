package jobs

import (
	"context"
	"sync"

	"github.com/Wayne-Yuw/toolscout-ai/internal/llm"
)

type fakeLLM struct {
	mu       sync.Mutex
	calls    int
	block    chan struct{}
	started  chan struct{}
	result   llm.Completion
	err      error
	lastMsgs []llm.Message
}

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.lastMsgs = messages
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return llm.Completion{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// flakyStore rejects calls on a done context like a network-backed store, and
// can fail Complete on demand.
type flakyStore struct {
	Store
	completeErr error
}

func (s *flakyStore) Get(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *flakyStore) Complete(ctx context.Context, id, model, analysis string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	if s.completeErr != nil {
		return Job{}, s.completeErr
	}
	return s.Store.Complete(ctx, id, model, analysis)
}

func (s *flakyStore) Fail(ctx context.Context, id, message string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	return s.Store.Fail(ctx, id, message)
}
