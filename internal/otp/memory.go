package otp

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// MemoryStore keeps codes in process memory. Expired entries are dropped by
// a periodic purge job.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
	cron    *cron.Cron
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// StartPurge schedules removal of expired entries, e.g. "@every 1m".
func (s *MemoryStore) StartPurge(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := s.Purge(); n > 0 {
			log.Printf("[otp] purged %d expired codes", n)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule otp purge: %w", err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the purge job, if running.
func (s *MemoryStore) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Purge drops expired entries and returns how many were removed.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for email, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Put(ctx context.Context, email string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[email] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, email string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}
