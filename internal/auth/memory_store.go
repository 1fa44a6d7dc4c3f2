package auth

import (
	"context"
	"sync"
	"time"
)

type memoryCodeEntry struct {
	grant Grant
	used  bool
}

// MemoryCodeStore keeps authorization codes in a mutex-guarded map. Suitable
// for a single instance and for tests; codes do not survive a restart and are
// not visible to other instances.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]*memoryCodeEntry
	now   func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		codes: make(map[string]*memoryCodeEntry),
		now:   time.Now,
	}
}

func (s *MemoryCodeStore) Store(ctx context.Context, code string, grant Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic cleanup: drop expired entries while we hold the lock.
	now := s.now()
	for c, e := range s.codes {
		if e.grant.Expired(now) {
			delete(s.codes, c)
		}
	}

	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = now
	}
	s.codes[code] = &memoryCodeEntry{grant: grant}
	return nil
}

func (s *MemoryCodeStore) Retrieve(ctx context.Context, code string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[code]
	if !ok || entry.used || entry.grant.Expired(s.now()) {
		return nil, ErrCodeNotFound
	}
	grant := entry.grant
	return &grant, nil
}

func (s *MemoryCodeStore) MarkUsed(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[code]
	if !ok || entry.used || entry.grant.Expired(s.now()) {
		return false, nil
	}
	entry.used = true
	return true, nil
}
