package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/adreach/backend/internal/observability"
	"go.uber.org/zap"
)

// Saver coalesces snapshot writes. Each intent has its own debounce window;
// rapid state changes reset the pending timer so only the last settled state
// is written. Saves are skipped while the snapshot is still trivial.
type Saver struct {
	store      Store
	fn         func() Snapshot
	fullDelay  time.Duration
	lightDelay time.Duration
	log        *zap.Logger

	mu         sync.Mutex
	fullTimer  *time.Timer
	lightTimer *time.Timer
}

// NewSaver builds a Saver around a snapshot source. fn is called at fire
// time, not at mark time, so the write always reflects the latest state.
func NewSaver(store Store, fn func() Snapshot, fullDelay, lightDelay time.Duration, log *zap.Logger) *Saver {
	if fullDelay <= 0 {
		fullDelay = time.Second
	}
	if lightDelay <= 0 {
		lightDelay = 2 * time.Second
	}
	return &Saver{
		store:      store,
		fn:         fn,
		fullDelay:  fullDelay,
		lightDelay: lightDelay,
		log:        log,
	}
}

// Mark schedules a debounced save for the given intent.
func (s *Saver) Mark(intent Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch intent {
	case IntentLight:
		if s.lightTimer != nil {
			s.lightTimer.Stop()
		}
		s.lightTimer = time.AfterFunc(s.lightDelay, func() { s.fire(IntentLight) })
	default:
		if s.fullTimer != nil {
			s.fullTimer.Stop()
		}
		s.fullTimer = time.AfterFunc(s.fullDelay, func() { s.fire(IntentFull) })
	}
}

// Flush cancels pending timers and writes the full snapshot immediately.
func (s *Saver) Flush(ctx context.Context) error {
	s.Stop()
	snap := s.fn()
	if !snap.NonTrivial() {
		return nil
	}
	return s.store.Save(ctx, snap.UserID, snap, IntentFull)
}

// Stop cancels all pending saves without writing.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fullTimer != nil {
		s.fullTimer.Stop()
		s.fullTimer = nil
	}
	if s.lightTimer != nil {
		s.lightTimer.Stop()
		s.lightTimer = nil
	}
}

func (s *Saver) fire(intent Intent) {
	snap := s.fn()
	if !snap.NonTrivial() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	label := "full"
	if intent == IntentLight {
		label = "light"
	}

	if err := s.store.Save(ctx, snap.UserID, snap, intent); err != nil {
		observability.SnapshotSaves.WithLabelValues(label, "error").Inc()
		s.log.Warn("snapshot save failed",
			zap.String("user_id", snap.UserID),
			zap.Int("intent", int(intent)),
			zap.Error(err),
		)
		return
	}
	observability.SnapshotSaves.WithLabelValues(label, "ok").Inc()
}
