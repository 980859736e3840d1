package session

import (
	"context"
	"sync"
	"time"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// MemoryStore keeps entries in process memory. Expired entries are dropped
// by a cleanup goroutine, the same way the rate limiter prunes buckets.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]domain.Entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

func key(sid, k string) string { return sid + "\x00" + k }

func (s *MemoryStore) Put(_ context.Context, e domain.Entry) error {
	e.Value = append([]byte(nil), e.Value...)
	s.mu.Lock()
	s.entries[key(e.SessionID, e.Key)] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sid, k string) (domain.Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key(sid, k)]
	s.mu.RUnlock()
	if !ok || e.Expired(s.now()) {
		return domain.Entry{}, domain.ErrNotFound
	}
	e.Value = append([]byte(nil), e.Value...)
	return e, nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, k string) error {
	s.mu.Lock()
	delete(s.entries, key(sid, k))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len counts stored entries, expired ones included until the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// StartCleanup sweeps every interval until Close.
func (s *MemoryStore) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
