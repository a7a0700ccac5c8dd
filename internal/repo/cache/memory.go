package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
)

// MemoryStore keeps snapshots in process. Concurrent Set calls for one id: last writer wins.
// Like the redis key TTL, ttl only reclaims memory; freshness is decided by the caller from CachedAt.
// Expired entries are dropped on Get and swept on Set at most once per ttl.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]memoryEntry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type memoryEntry struct {
	snapshot  entity.ListingSnapshot
	expiresAt time.Time
}

type MemoryOption func(*MemoryStore)

func MemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore keeps entries for ttl after their last Set; ttl <= 0 keeps them until Delete.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.lastSweep = s.now()

	return s
}

func (s *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return s.ttl > 0 && !now.Before(e.expiresAt)
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (entity.ListingSnapshot, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return entity.ListingSnapshot{}, false, nil
	}

	if s.expired(e, s.now()) {
		s.mu.Lock()
		// a concurrent Set may have refreshed it
		if cur, ok := s.entries[id]; ok && s.expired(cur, s.now()) {
			delete(s.entries, id)
		}
		s.mu.Unlock()

		return entity.ListingSnapshot{}, false, nil
	}

	return e.snapshot, true, nil
}

func (s *MemoryStore) Set(_ context.Context, snapshot entity.ListingSnapshot) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[snapshot.Listing.ID] = memoryEntry{
		snapshot:  snapshot,
		expiresAt: now.Add(s.ttl),
	}

	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}

	return nil
}

// sweep must be called with mu held.
func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)

	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
