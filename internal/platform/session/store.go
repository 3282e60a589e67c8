package session

import (
	"context"
	"sync"
	"time"
)

// Store tracks which session ids are alive server-side. A credential whose
// jti is not alive resolves to no identity, which is how logout and forced
// revocation take effect before the token's natural expiry.
type Store interface {
	Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	IsAlive(ctx context.Context, sessionID string) (bool, error)
	Refresh(ctx context.Context, sessionID string, ttl time.Duration) error
	Revoke(ctx context.Context, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}

// memoryEntry stores the owner and expiry of a live session.
type memoryEntry struct {
	UserID    string
	ExpiresAt time.Time
}

// MemoryStore is an in-memory Store for tests and single-node deployments.
// Expired entries are cleaned up by a background goroutine. Thread-safe.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	userSIDs map[string][]string
	done     chan struct{}
}

const memoryCleanupPeriod = 5 * time.Minute

// NewMemoryStore creates a store and starts its cleanup goroutine.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]memoryEntry),
		userSIDs: make(map[string][]string),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(memoryCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid, e := range s.entries {
		if !e.ExpiresAt.After(now) {
			delete(s.entries, sid)
		}
	}
	for uid, sids := range s.userSIDs {
		kept := sids[:0]
		for _, sid := range sids {
			if _, ok := s.entries[sid]; ok {
				kept = append(kept, sid)
			}
		}
		if len(kept) == 0 {
			delete(s.userSIDs, uid)
		} else {
			s.userSIDs[uid] = kept
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	close(s.done)
}

func (s *MemoryStore) Put(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{UserID: userID, ExpiresAt: time.Now().Add(ttl)}
	if userID != "" {
		s.userSIDs[userID] = append(s.userSIDs[userID], sessionID)
	}
	return nil
}

func (s *MemoryStore) IsAlive(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return ok && e.ExpiresAt.After(time.Now()), nil
}

func (s *MemoryStore) Refresh(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil
	}
	e.ExpiresAt = time.Now().Add(ttl)
	s.entries[sessionID] = e
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, sid := range s.userSIDs[userID] {
		if _, ok := s.entries[sid]; ok {
			delete(s.entries, sid)
			count++
		}
	}
	delete(s.userSIDs, userID)
	return count, nil
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
