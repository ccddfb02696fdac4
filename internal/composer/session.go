package composer

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/observability"
	"github.com/adreach/backend/internal/snapshot"
	"github.com/adreach/backend/internal/stream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Shown in place of the assistant turn when the AI upstream fails or emits
// an error frame.
const failureMessage = "죄송합니다. 오류가 발생했습니다. 다시 시도해주세요."

// ChatRequest is one generation request against the AI upstream.
type ChatRequest struct {
	Message      string
	Previous     []models.Message
	InitialImage string // base64 data URL, optional
}

// EventSource yields decoded events until io.EOF.
type EventSource interface {
	Next() (stream.Event, error)
	Close() error
}

// Streamer opens one generation stream.
type Streamer interface {
	StreamChat(ctx context.Context, req ChatRequest) (EventSource, error)
}

// TurnResult is the outcome of one user message. Exactly one of Question
// and Events is set: a guided question answered locally, or a live event
// stream the caller must drain.
type TurnResult struct {
	Question *models.Message
	Events   <-chan stream.Event
}

// Session is one advertiser's composer session: the conversation, the draft
// mirror, the onboarding sequencer and the in-flight generation state. All
// mutation goes through the session mutex; decoder events and user edits
// are two writers over the same draft, and a generation counter keeps a
// superseded stream from clobbering newer state.
type Session struct {
	ID       string
	UserID   uuid.UUID
	Industry string

	mu         sync.Mutex
	conv       *Conversation
	draft      *draft.Draft
	seq        *Sequencer
	generation uint64
	dropped    uint64

	saver *snapshot.Saver
	log   *zap.Logger
}

func NewSession(userID uuid.UUID, industry string, log *zap.Logger) *Session {
	return &Session{
		ID:       uuid.New().String(),
		UserID:   userID,
		Industry: industry,
		conv:     NewConversation(),
		draft:    draft.New(),
		seq:      NewSequencer(),
		log:      log,
	}
}

// RestoreSession rebuilds a session from a persisted snapshot.
func RestoreSession(userID uuid.UUID, industry string, snap *snapshot.Snapshot, log *zap.Logger) *Session {
	s := NewSession(userID, industry, log)
	if snap == nil {
		return s
	}
	d := snap.Draft
	s.draft = &d
	s.conv = RestoreConversation(snap.Messages)
	s.seq = &Sequencer{
		Phase:   Phase(snap.SequencerPhase),
		Index:   snap.SequencerIndex,
		Answers: snap.Answers,
	}
	if s.seq.Answers == nil {
		s.seq.Answers = make(map[int]string)
	}
	s.generation = snap.Generation
	return s
}

// AttachSaver wires debounced persistence. Must be called before the first
// mutation that should be persisted.
func (s *Session) AttachSaver(store snapshot.Store, fullDelay, lightDelay time.Duration) {
	s.saver = snapshot.NewSaver(store, s.Snapshot, fullDelay, lightDelay, s.log)
}

// Snapshot captures the current session state under the lock.
func (s *Session) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() snapshot.Snapshot {
	answers := make(map[int]string, len(s.seq.Answers))
	for k, v := range s.seq.Answers {
		answers[k] = v
	}
	return snapshot.Snapshot{
		UserID:         s.UserID.String(),
		Draft:          *s.draft,
		Messages:       s.conv.Turns(),
		SequencerPhase: int(s.seq.Phase),
		SequencerIndex: s.seq.Index,
		Answers:        answers,
		Generation:     s.generation,
		SavedAt:        time.Now(),
	}
}

// Turns returns the conversation in insertion order.
func (s *Session) Turns() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Turns()
}

// Draft returns a copy of the draft mirror.
func (s *Session) Draft() draft.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.draft
}

// EditDraft applies a direct user edit under the session lock and schedules
// persistence. The callback gets the live draft.
func (s *Session) EditDraft(edit func(*draft.Draft)) draft.Draft {
	s.mu.Lock()
	edit(s.draft)
	out := *s.draft
	s.mu.Unlock()
	s.markSaved()
	return out
}

// DroppedEvents reports how many stale-generation events were discarded.
func (s *Session) DroppedEvents() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Session) markSaved() {
	if s.saver != nil {
		s.saver.Mark(snapshot.IntentFull)
		s.saver.Mark(snapshot.IntentLight)
	}
}

// Flush persists the full snapshot immediately, bypassing the debounce.
func (s *Session) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	return s.saver.Flush(ctx)
}

// Close stops pending persistence timers.
func (s *Session) Close() {
	if s.saver != nil {
		s.saver.Stop()
	}
}

// HandleUserMessage consumes one user message. While the onboarding
// sequencer is active the reply is produced locally; afterwards (and for
// the sequencer's one-time composite prompt) the AI upstream is streamed
// and every decoded event is applied to the session before being forwarded
// on the returned channel.
func (s *Session) HandleUserMessage(ctx context.Context, ai Streamer, text string, file *models.AttachedFile) (*TurnResult, error) {
	s.mu.Lock()
	history := s.conv.Turns()
	s.conv.AppendUserTurn(text, file)

	prompt := text
	if s.seq.Active() {
		r := s.seq.Advance(text, s.Industry)
		if r.Question != "" {
			q := s.conv.AppendQuestionTurn(r.Question)
			s.mu.Unlock()
			s.markSaved()
			return &TurnResult{Question: &q}, nil
		}
		// Sequencer completed: the composite prompt goes to the AI exactly
		// once; the raw last answer stays in the conversation as-is.
		prompt = r.Prompt
	}

	s.generation++
	gen := s.generation
	turnID := s.conv.AppendAssistantPlaceholder()
	initialImage := ""
	if file != nil {
		initialImage = file.Preview
	}
	s.mu.Unlock()
	s.markSaved()

	src, err := ai.StreamChat(ctx, ChatRequest{
		Message:      prompt,
		Previous:     history,
		InitialImage: initialImage,
	})
	if err != nil {
		s.mu.Lock()
		s.conv.Fail(turnID, failureMessage)
		s.mu.Unlock()
		s.markSaved()
		return nil, err
	}

	out := make(chan stream.Event, 16)
	go s.pump(src, out, turnID, gen)
	return &TurnResult{Events: out}, nil
}

func (s *Session) pump(src EventSource, out chan<- stream.Event, turnID string, gen uint64) {
	defer close(out)
	defer func() { _ = src.Close() }()

	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Transport died mid-stream: same terminal handling as an
			// explicit error frame.
			s.log.Warn("ai stream read failed", zap.Error(err))
			if s.apply(stream.ErrorEvent{Message: failureMessage}, turnID, gen) {
				out <- stream.ErrorEvent{Message: failureMessage}
			}
			return
		}

		if !s.apply(ev, turnID, gen) {
			continue // stale generation, swallowed
		}
		out <- ev

		if _, failed := ev.(stream.ErrorEvent); failed {
			return
		}
	}
}

// apply mutates session state for one event. Returns false when the event
// belongs to a superseded generation and was discarded.
func (s *Session) apply(ev stream.Event, turnID string, gen uint64) bool {
	s.mu.Lock()

	if gen != s.generation {
		s.dropped++
		observability.StaleEventsDropped.Inc()
		s.mu.Unlock()
		s.log.Debug("discarding event from superseded stream",
			zap.Uint64("event_generation", gen),
			zap.Uint64("current_generation", s.generation),
		)
		return false
	}

	switch e := ev.(type) {
	case stream.TextDelta:
		s.conv.AppendDelta(turnID, e.Content)

	case stream.TextReplace:
		s.conv.ReplaceContent(turnID, e.Content)
		s.applySidecarLocked(e.Sidecar)

	case stream.PartialImage:
		s.conv.SetPartialImage(turnID, e.ImageURL)
		s.draft.ImageURL = e.ImageURL

	case stream.ImageGenerated:
		s.conv.FinishImage(turnID, e.ImageURL)
		if e.ImageURL != "" {
			s.draft.ImageURL = e.ImageURL
		}

	case stream.ResponseComplete:
		if e.FullText != "" {
			s.conv.ReplaceContent(turnID, e.FullText)
		}
		s.conv.FinishImage(turnID, e.ImageURL)
		s.applySidecarLocked(e.Sidecar)
		s.conv.FinalizeAll()

	case stream.ErrorEvent:
		s.conv.Fail(turnID, failureMessage)
		s.conv.FinalizeAll()

	case stream.StreamClosed:
		s.conv.FinalizeAll()
	}

	s.mu.Unlock()
	s.markSaved()
	return true
}

// applySidecarLocked overwrites draft fields from a frame's side channel.
// Decoder-driven updates always win over the previous value outright.
func (s *Session) applySidecarLocked(sc stream.Sidecar) {
	if sc.SMSTextContent != "" {
		s.draft.SMSTextContent = sc.SMSTextContent
	}
	if sc.ConciseTitle != "" {
		s.draft.TemplateTitle = sc.ConciseTitle
	}
	if len(sc.QuickActionButtons) > 0 {
		replies := make([]string, 0, len(sc.QuickActionButtons))
		for _, qa := range sc.QuickActionButtons {
			replies = append(replies, qa.Text)
		}
		s.draft.QuickReplies = replies
	}
	if len(sc.StructuredRecommendation) > 0 {
		rec := make([]draft.RecommendationSection, 0, len(sc.StructuredRecommendation))
		for _, r := range sc.StructuredRecommendation {
			rec = append(rec, draft.RecommendationSection{Section: r.Section, Items: r.Items})
		}
		s.draft.Recommendation = rec
	}
}
