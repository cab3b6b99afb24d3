package jobs

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps jobs in process memory. Jobs are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job), now: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, url string) (Job, error) {
	job := newPending(s.now(), url)
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id, model, analysis string) (Job, error) {
	return s.update(id, StatusCompleted, model, analysis, "")
}

func (s *MemoryStore) Fail(ctx context.Context, id, message string) (Job, error) {
	return s.update(id, StatusFailed, "", "", message)
}

func (s *MemoryStore) update(id string, status Status, model, analysis, message string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	job, err := finish(job, s.now(), status, model, analysis, message)
	if err != nil {
		return job, err
	}
	s.jobs[id] = job
	return job, nil
}

var _ Store = (*MemoryStore)(nil)
