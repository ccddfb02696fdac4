package composer

import (
	"context"
	"sync"
	"time"

	"github.com/adreach/backend/internal/snapshot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager keeps one live composer session per advertiser and backs them
// with the snapshot store.
type Manager struct {
	store      snapshot.Store
	fullDelay  time.Duration
	lightDelay time.Duration
	log        *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	lastSeen map[uuid.UUID]time.Time
}

func NewManager(store snapshot.Store, fullDelay, lightDelay time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		store:      store,
		fullDelay:  fullDelay,
		lightDelay: lightDelay,
		log:        log,
		sessions:   make(map[uuid.UUID]*Session),
		lastSeen:   make(map[uuid.UUID]time.Time),
	}
}

// Get returns the live session for a user, if any.
func (m *Manager) Get(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if ok {
		m.lastSeen[userID] = time.Now()
	}
	return s, ok
}

// Start creates a fresh session, replacing any live one.
func (m *Manager) Start(userID uuid.UUID, industry string) *Session {
	s := NewSession(userID, industry, m.logFor())
	s.AttachSaver(m.store, m.fullDelay, m.lightDelay)

	m.mu.Lock()
	if old, ok := m.sessions[userID]; ok {
		old.Close()
	}
	m.sessions[userID] = s
	m.lastSeen[userID] = time.Now()
	m.mu.Unlock()
	return s
}

// Resume returns the live session if present; otherwise it loads the
// persisted snapshot and rehydrates from it. The second return reports
// whether a snapshot was restored.
func (m *Manager) Resume(ctx context.Context, userID uuid.UUID, industry string) (*Session, bool, error) {
	if s, ok := m.Get(userID); ok {
		return s, false, nil
	}

	snap, err := m.store.Load(ctx, userID.String())
	if err != nil {
		return nil, false, err
	}

	s := RestoreSession(userID, industry, snap, m.logFor())
	s.AttachSaver(m.store, m.fullDelay, m.lightDelay)

	m.mu.Lock()
	m.sessions[userID] = s
	m.lastSeen[userID] = time.Now()
	m.mu.Unlock()
	return s, snap != nil, nil
}

// Drop closes and forgets the live session, flushing state first.
func (m *Manager) Drop(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	delete(m.lastSeen, userID)
	m.mu.Unlock()

	if ok {
		if err := s.Flush(ctx); err != nil {
			m.logFor().Warn("flush on drop failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		s.Close()
	}
}

// Discard closes and forgets the live session and clears its snapshot.
// Used after a campaign is submitted: the draft has become a campaign.
func (m *Manager) Discard(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		s.Close()
		delete(m.sessions, userID)
	}
	delete(m.lastSeen, userID)
	m.mu.Unlock()
	return m.store.Clear(ctx, userID.String())
}

// SweepIdle flushes and evicts sessions with no traffic for maxIdle.
// The persisted snapshot stays, so the advertiser can still resume.
func (m *Manager) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var idle []uuid.UUID
	for id, seen := range m.lastSeen {
		if seen.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		m.Drop(ctx, id)
	}
	return len(idle)
}

func (m *Manager) logFor() *zap.Logger {
	if m.log != nil {
		return m.log
	}
	return zap.NewNop()
}
