package composer

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/snapshot"
	"github.com/adreach/backend/internal/stream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scriptedSource struct {
	events []stream.Event
	i      int
}

func (s *scriptedSource) Next() (stream.Event, error) {
	if s.i >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func (s *scriptedSource) Close() error { return nil }

type chanSource struct{ ch chan stream.Event }

func (s *chanSource) Next() (stream.Event, error) {
	ev, ok := <-s.ch
	if !ok {
		return nil, io.EOF
	}
	return ev, nil
}

func (s *chanSource) Close() error { return nil }

type fakeStreamer struct {
	requests []ChatRequest
	sources  []EventSource
}

func (f *fakeStreamer) StreamChat(_ context.Context, req ChatRequest) (EventSource, error) {
	f.requests = append(f.requests, req)
	src := f.sources[len(f.requests)-1]
	return src, nil
}

func drain(t *testing.T, res *TurnResult) []stream.Event {
	t.Helper()
	if res.Events == nil {
		t.Fatal("expected an event stream")
	}
	var out []stream.Event
	for ev := range res.Events {
		out = append(out, ev)
	}
	return out
}

func completedSession(t *testing.T) *Session {
	t.Helper()
	snap := &snapshot.Snapshot{SequencerPhase: int(PhaseComplete)}
	return RestoreSession(uuid.New(), "카페/식음료", snap, zap.NewNop())
}

func TestOnboardingRunsBeforeAnyAICall(t *testing.T) {
	ctx := context.Background()
	s := NewSession(uuid.New(), "카페/식음료", zap.NewNop())
	ai := &fakeStreamer{sources: []EventSource{
		&scriptedSource{events: []stream.Event{
			stream.ResponseComplete{FullText: "생성된 마케팅 문구"},
		}},
	}}

	answers := []string{"신규고객 유입", "아메리카노 20% 할인", "없어요"}

	// Opening message plus the first two answers each produce a local
	// question turn; the AI is never touched.
	for _, msg := range []string{"카페 홍보하고 싶어요", answers[0], answers[1]} {
		res, err := s.HandleUserMessage(ctx, ai, msg, nil)
		if err != nil {
			t.Fatalf("HandleUserMessage(%q): %v", msg, err)
		}
		if res.Question == nil {
			t.Fatalf("expected a question turn for %q", msg)
		}
	}
	if len(ai.requests) != 0 {
		t.Fatalf("AI called during onboarding: %d calls", len(ai.requests))
	}

	questionTurns := 0
	for _, m := range s.Turns() {
		if m.IsQuestion {
			questionTurns++
		}
	}
	if questionTurns != QuestionCount() {
		t.Errorf("question turns = %d, want %d", questionTurns, QuestionCount())
	}

	// The final answer completes the sequencer and triggers exactly one
	// AI call whose prompt carries every recorded answer.
	res, err := s.HandleUserMessage(ctx, ai, answers[2], nil)
	if err != nil {
		t.Fatalf("final answer: %v", err)
	}
	drain(t, res)

	if len(ai.requests) != 1 {
		t.Fatalf("AI calls = %d, want 1", len(ai.requests))
	}
	for _, a := range answers {
		if !strings.Contains(ai.requests[0].Message, a) {
			t.Errorf("composite prompt missing %q", a)
		}
	}
}

func TestStreamEventsApplyToConversationAndDraft(t *testing.T) {
	ctx := context.Background()
	s := completedSession(t)
	events := []stream.Event{
		stream.TextDelta{Content: "가을 이벤트 "},
		stream.TextDelta{Content: "안내드립니다"},
		stream.PartialImage{ImageURL: "https://cdn.example/p1.png"},
		stream.ImageGenerated{ImageURL: "https://cdn.example/final.png"},
		stream.ResponseComplete{
			FullText: "가을 이벤트 안내드립니다 (정리본)",
			Sidecar: stream.Sidecar{
				SMSTextContent:     "[가을 이벤트] 전 메뉴 20% 할인",
				ConciseTitle:       "가을 이벤트",
				QuickActionButtons: []stream.QuickAction{{Text: "이미지 바꿔줘"}},
			},
		},
	}
	ai := &fakeStreamer{sources: []EventSource{&scriptedSource{events: events}}}

	res, err := s.HandleUserMessage(ctx, ai, "가을 이벤트 문구 만들어줘", nil)
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	forwarded := drain(t, res)
	if len(forwarded) != len(events) {
		t.Errorf("forwarded %d events, want %d", len(forwarded), len(events))
	}

	turns := s.Turns()
	last := turns[len(turns)-1]
	if last.Content != "가을 이벤트 안내드립니다 (정리본)" {
		t.Errorf("final content = %q", last.Content)
	}
	if last.IsImageLoading {
		t.Error("loading flag set after stream end")
	}
	if last.ImageURL != "https://cdn.example/final.png" {
		t.Errorf("image = %q", last.ImageURL)
	}

	d := s.Draft()
	if d.SMSTextContent != "[가을 이벤트] 전 메뉴 20% 할인" {
		t.Errorf("draft body = %q", d.SMSTextContent)
	}
	if d.TemplateTitle != "가을 이벤트" {
		t.Errorf("draft title = %q", d.TemplateTitle)
	}
	if d.ImageURL != "https://cdn.example/final.png" {
		t.Errorf("draft image = %q", d.ImageURL)
	}
	if !reflect.DeepEqual(d.QuickReplies, []string{"이미지 바꿔줘"}) {
		t.Errorf("quick replies = %v", d.QuickReplies)
	}
}

func TestAbruptStreamEndClearsLoadingFlags(t *testing.T) {
	ctx := context.Background()
	s := completedSession(t)
	// Image still loading when the transport ends; StreamClosed is what the
	// decoder synthesizes in that case.
	ai := &fakeStreamer{sources: []EventSource{&scriptedSource{events: []stream.Event{
		stream.TextDelta{Content: "부분 답변"},
		stream.PartialImage{ImageURL: "https://cdn.example/p1.png"},
		stream.StreamClosed{},
	}}}}

	res, err := s.HandleUserMessage(ctx, ai, "이미지 만들어줘", nil)
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	drain(t, res)

	for _, m := range s.Turns() {
		if m.IsImageLoading {
			t.Errorf("turn %s still loading after stream closure", m.ID)
		}
	}
}

func TestErrorFrameReplacesTurnContent(t *testing.T) {
	ctx := context.Background()
	s := completedSession(t)
	ai := &fakeStreamer{sources: []EventSource{&scriptedSource{events: []stream.Event{
		stream.TextDelta{Content: "절반쯤 생성된"},
		stream.ErrorEvent{Message: "upstream overloaded"},
	}}}}

	res, err := s.HandleUserMessage(ctx, ai, "문구 만들어줘", nil)
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	drain(t, res)

	turns := s.Turns()
	last := turns[len(turns)-1]
	if last.Content != failureMessage {
		t.Errorf("content = %q, want the failure message", last.Content)
	}
}

func TestStaleGenerationEventsAreDiscarded(t *testing.T) {
	ctx := context.Background()
	s := completedSession(t)

	first := &chanSource{ch: make(chan stream.Event, 4)}
	second := &chanSource{ch: make(chan stream.Event, 4)}
	ai := &fakeStreamer{sources: []EventSource{first, second}}

	res1, err := s.HandleUserMessage(ctx, ai, "첫 번째 요청", nil)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	res2, err := s.HandleUserMessage(ctx, ai, "두 번째 요청", nil)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	// Newer stream writes the draft.
	second.ch <- stream.TextReplace{Content: "새 문구", Sidecar: stream.Sidecar{SMSTextContent: "NEW"}}
	close(second.ch)
	drain(t, res2)

	// Older stream's late event must be swallowed, not forwarded, and must
	// not clobber the newer state.
	first.ch <- stream.TextReplace{Content: "낡은 문구", Sidecar: stream.Sidecar{SMSTextContent: "OLD"}}
	close(first.ch)
	if got := drain(t, res1); len(got) != 0 {
		t.Errorf("stale stream forwarded %d events", len(got))
	}

	if d := s.Draft(); d.SMSTextContent != "NEW" {
		t.Errorf("draft body = %q, want NEW", d.SMSTextContent)
	}
	if n := s.DroppedEvents(); n != 1 {
		t.Errorf("DroppedEvents = %d, want 1", n)
	}
}

func TestUserEditsSurviveViaEditDraft(t *testing.T) {
	s := completedSession(t)
	d := s.EditDraft(func(d *draft.Draft) {
		d.SetFemaleRatio(65)
		d.AddAge("20s")
	})
	if d.FemaleRatio != 65 || d.MaleRatio != 35 {
		t.Errorf("ratio = %d/%d", d.FemaleRatio, d.MaleRatio)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := completedSession(t)
	ai := &fakeStreamer{sources: []EventSource{&scriptedSource{events: []stream.Event{
		stream.ResponseComplete{
			FullText: "문구",
			Sidecar:  stream.Sidecar{SMSTextContent: "본문", ConciseTitle: "제목"},
		},
	}}}}

	res, err := s.HandleUserMessage(ctx, ai, "만들어줘", nil)
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	drain(t, res)
	s.EditDraft(func(d *draft.Draft) {
		d.AddLocation("seoul", "gangnam")
		d.SetFemaleRatio(65)
	})

	snap := s.Snapshot()
	restored := RestoreSession(s.UserID, s.Industry, &snap, zap.NewNop())
	back := restored.Snapshot()

	if !reflect.DeepEqual(back.Draft, snap.Draft) {
		t.Errorf("draft differs after restore:\ngot  %#v\nwant %#v", back.Draft, snap.Draft)
	}
	if !reflect.DeepEqual(back.Messages, snap.Messages) {
		t.Errorf("messages differ after restore")
	}
	if back.SequencerPhase != snap.SequencerPhase || back.Generation != snap.Generation {
		t.Errorf("machine state differs: %+v vs %+v", back, snap)
	}
}
