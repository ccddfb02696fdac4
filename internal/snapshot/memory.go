package snapshot

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by tests and local runs without
// redis.
type MemoryStore struct {
	mu       sync.Mutex
	full     map[string]Snapshot
	light    map[string]Snapshot
	payments map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		full:     make(map[string]Snapshot),
		light:    make(map[string]Snapshot),
		payments: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Save(_ context.Context, userID string, snap Snapshot, intent Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent == IntentLight {
		s.light[userID] = snap.Light()
		return nil
	}
	s.full[userID] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, userID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.full[userID]
	if !ok {
		return nil, nil
	}
	out := snap
	return &out, nil
}

// LoadLight exposes the recovery record for tests.
func (s *MemoryStore) LoadLight(userID string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.light[userID]
	if !ok {
		return nil, false
	}
	out := snap
	return &out, true
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.full, userID)
	delete(s.light, userID)
	return nil
}

func (s *MemoryStore) MarkPaymentCompleted(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[userID] = at
	return nil
}

func (s *MemoryStore) PaymentCompletedAt(_ context.Context, userID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.payments[userID]
	return at, ok, nil
}

func (s *MemoryStore) ClearPaymentCompleted(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, userID)
	return nil
}
