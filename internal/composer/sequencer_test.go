package composer

import (
	"strings"
	"testing"
)

func TestSequencerWalk(t *testing.T) {
	s := NewSequencer()

	// Opening message triggers question 0 and is not recorded as an answer.
	r := s.Advance("카페 홍보하고 싶어요", "카페/식음료")
	if r.Question == "" || r.Prompt != "" {
		t.Fatalf("opening message should yield question 0, got %+v", r)
	}
	if !strings.Contains(r.Question, "광고의 목적은 무엇인가요") {
		t.Errorf("question 0 = %q", r.Question)
	}
	if len(s.Answers) != 0 {
		t.Errorf("opening message must not be recorded: %v", s.Answers)
	}

	answers := []string{"신규고객 유입", "아메리카노 20% 할인, 9월 한 달", "없어요"}

	r = s.Advance(answers[0], "카페/식음료")
	if r.Question == "" {
		t.Fatal("expected question 1")
	}
	r = s.Advance(answers[1], "카페/식음료")
	if r.Question == "" {
		t.Fatal("expected question 2")
	}

	r = s.Advance(answers[2], "카페/식음료")
	if r.Prompt == "" || r.Question != "" {
		t.Fatalf("last answer should complete with a prompt, got %+v", r)
	}
	if s.Phase != PhaseComplete {
		t.Errorf("phase = %v, want complete", s.Phase)
	}

	// The composite prompt carries every recorded answer and the industry.
	for _, a := range answers {
		if !strings.Contains(r.Prompt, a) {
			t.Errorf("prompt missing answer %q:\n%s", a, r.Prompt)
		}
	}
	if !strings.Contains(r.Prompt, "카페/식음료") {
		t.Errorf("prompt missing industry:\n%s", r.Prompt)
	}
}

func TestSequencerAnswersKeyedInIncreasingOrder(t *testing.T) {
	s := NewSequencer()
	s.Advance("시작", "")
	s.Advance("답변0", "")
	s.Advance("답변1", "")

	if s.Answers[0] != "답변0" || s.Answers[1] != "답변1" {
		t.Errorf("answers = %v", s.Answers)
	}
	if _, ok := s.Answers[2]; ok {
		t.Error("answer 2 recorded early")
	}
}

func TestSequencerIsOneWay(t *testing.T) {
	s := NewSequencer()
	s.Advance("시작", "")
	for i := 0; i < QuestionCount(); i++ {
		s.Advance("답", "")
	}
	if s.Phase != PhaseComplete {
		t.Fatalf("phase = %v", s.Phase)
	}

	// Once complete, the sequencer never intercepts again.
	r := s.Advance("일반 채팅 메시지", "")
	if r.Question != "" || r.Prompt != "" {
		t.Errorf("complete sequencer reacted: %+v", r)
	}
	if s.Phase != PhaseComplete {
		t.Errorf("phase regressed to %v", s.Phase)
	}
}

func TestSequencerDefaultIndustry(t *testing.T) {
	s := NewSequencer()
	s.Advance("시작", "")
	var r Reaction
	for i := 0; i < QuestionCount(); i++ {
		r = s.Advance("답", "")
	}
	if !strings.Contains(r.Prompt, "일반") {
		t.Errorf("empty industry should fall back to 일반:\n%s", r.Prompt)
	}
}
