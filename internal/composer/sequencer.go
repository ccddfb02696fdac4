package composer

import (
	"fmt"
	"strings"
)

// Sequencer phases. The machine is one-way: once Complete it never
// re-enters, and every later user message goes straight to the AI stream.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingAnswer
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// The fixed onboarding questions, asked in order before the AI is ever
// called. Labels key the answers into the composite prompt.
var onboardingQuestions = []struct {
	Label string
	Text  string
}{
	{"광고 목적", "광고의 목적은 무엇인가요? (답변예시 : 신규고객 유입, 단골고객 확보, 리뷰 및 SNS, 안내)"},
	{"제공 혜택", "제공할 혜택이 있다면, 혜택 내용과 제공하는 기간을 알려주세요.(없다면 없다고 말씀해주세요.)"},
	{"타겟 고객", "광고에 사용하고 싶은 이미지가 있다면 올려주세요. 없다면 없다고 말씀해주세요."},
}

const questionPreamble = "효과적인 마케팅 캠페인을 만들기 위해 몇 가지 질문을 드리겠습니다."

// QuestionCount is exported for tests and the handler's progress response.
func QuestionCount() int { return len(onboardingQuestions) }

// Sequencer walks the onboarding questions, collecting answers keyed by
// question index in strictly increasing order.
type Sequencer struct {
	Phase   Phase          `json:"phase"`
	Index   int            `json:"index"`
	Answers map[int]string `json:"answers"`
}

func NewSequencer() *Sequencer {
	return &Sequencer{Phase: PhaseNotStarted, Answers: make(map[int]string)}
}

// Reaction is what the caller must do with a user message the sequencer
// consumed: emit Question verbatim as an assistant turn, or (exactly once,
// on completion) forward Prompt to the AI backend. Both empty means the
// sequencer is already complete and the message is a normal chat turn.
type Reaction struct {
	Question string
	Prompt   string
}

// Active reports whether the sequencer still intercepts user messages.
func (s *Sequencer) Active() bool {
	return s.Phase != PhaseComplete
}

// Advance consumes one user message.
//
// The first message after session start is the advertiser's opening request;
// it is not recorded as an answer, it only triggers question 0. Every
// message after that answers the pending question until the list runs out.
func (s *Sequencer) Advance(userMessage, industry string) Reaction {
	switch s.Phase {
	case PhaseNotStarted:
		s.Phase = PhaseAwaitingAnswer
		s.Index = 0
		return Reaction{Question: questionPreamble + "\n\n" + onboardingQuestions[0].Text}

	case PhaseAwaitingAnswer:
		if s.Answers == nil {
			s.Answers = make(map[int]string)
		}
		s.Answers[s.Index] = userMessage

		if s.Index < len(onboardingQuestions)-1 {
			s.Index++
			return Reaction{Question: onboardingQuestions[s.Index].Text}
		}

		s.Phase = PhaseComplete
		return Reaction{Prompt: s.compositePrompt(industry)}

	default:
		return Reaction{}
	}
}

func (s *Sequencer) compositePrompt(industry string) string {
	if industry == "" {
		industry = "일반"
	}
	var b strings.Builder
	b.WriteString("사용자 정보:\n")
	fmt.Fprintf(&b, "- 업종: %s\n", industry)
	for i, q := range onboardingQuestions {
		fmt.Fprintf(&b, "- %s: %s\n", q.Label, s.Answers[i])
	}
	b.WriteString("\n위 정보를 바탕으로 효과적인 마케팅 콘텐츠를 생성해주세요.")
	return b.String()
}
