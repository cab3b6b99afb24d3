package auth

import (
	"sync"
	"time"
)

// stateStore holds issued OAuth state values until they are used or expire.
type stateStore struct {
	items map[string]stateEntry
	mu    sync.Mutex
	now   func() time.Time
}

type stateEntry struct {
	provider string
	exp      time.Time
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]stateEntry), now: time.Now}
}

func (s *stateStore) put(state, provider string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.items {
		if now.After(v.exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = stateEntry{provider: provider, exp: exp}
}

// consume removes state and reports whether it was issued for provider and is
// still valid. A state can only be used once.
func (s *stateStore) consume(state, provider string) bool {
	s.mu.Lock()
	entry, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || entry.provider != provider {
		return false
	}
	return !s.now().After(entry.exp)
}
