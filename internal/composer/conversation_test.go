package composer

import (
	"strings"
	"testing"

	"github.com/adreach/backend/internal/models"
)

func TestDeltasConcatenateInArrivalOrder(t *testing.T) {
	c := NewConversation()
	id := c.AppendAssistantPlaceholder()

	parts := []string{"안녕", "하세요", ", ", "사장님"}
	for _, p := range parts {
		c.AppendDelta(id, p)
	}

	m, ok := c.Get(id)
	if !ok {
		t.Fatal("turn missing")
	}
	if want := strings.Join(parts, ""); m.Content != want {
		t.Errorf("content = %q, want %q", m.Content, want)
	}
}

func TestReplaceDiscardsPriorDeltas(t *testing.T) {
	c := NewConversation()
	id := c.AppendAssistantPlaceholder()

	c.AppendDelta(id, "draft text that will be ")
	c.AppendDelta(id, "superseded")
	c.ReplaceContent(id, "정리된 최종 문구")

	m, _ := c.Get(id)
	if m.Content != "정리된 최종 문구" {
		t.Errorf("content = %q, want the replacement only", m.Content)
	}
}

func TestImageLoadingWindow(t *testing.T) {
	c := NewConversation()
	id := c.AppendAssistantPlaceholder()

	c.SetPartialImage(id, "https://cdn.example/p1.png")
	if m, _ := c.Get(id); !m.IsImageLoading {
		t.Fatal("IsImageLoading should be true after partial_image")
	}

	c.FinishImage(id, "https://cdn.example/final.png")
	m, _ := c.Get(id)
	if m.IsImageLoading {
		t.Fatal("IsImageLoading should clear on image_generated")
	}
	if m.ImageURL != "https://cdn.example/final.png" {
		t.Errorf("ImageURL = %q", m.ImageURL)
	}

	// A settled URL never re-enters the loading state.
	c.SetPartialImage(id, "https://cdn.example/final.png")
	if m, _ := c.Get(id); m.IsImageLoading {
		t.Error("settled image must not revert to loading")
	}

	// A different URL may start a new loading window.
	c.SetPartialImage(id, "https://cdn.example/v2.png")
	if m, _ := c.Get(id); !m.IsImageLoading {
		t.Error("new image URL should open a loading window")
	}
}

func TestFinalizeAllClearsLoadingFlags(t *testing.T) {
	c := NewConversation()
	a := c.AppendAssistantPlaceholder()
	b := c.AppendAssistantPlaceholder()
	c.SetPartialImage(a, "https://cdn.example/a.png")
	c.SetPartialImage(b, "https://cdn.example/b.png")

	c.FinalizeAll()

	for _, m := range c.Turns() {
		if m.IsImageLoading {
			t.Errorf("turn %s still loading after stream end", m.ID)
		}
	}
}

func TestTurnsKeepInsertionOrder(t *testing.T) {
	c := NewConversation()
	u := c.AppendUserTurn("첫 메시지", nil)
	q := c.AppendQuestionTurn("질문입니다")
	aid := c.AppendAssistantPlaceholder()

	turns := c.Turns()
	if len(turns) != 3 {
		t.Fatalf("len = %d", len(turns))
	}
	if turns[0].ID != u.ID || turns[1].ID != q.ID || turns[2].ID != aid {
		t.Error("turns out of insertion order")
	}
	if turns[1].Role != models.RoleAssistant || !turns[1].IsQuestion {
		t.Error("question turn should be an assistant question")
	}
}

func TestRestoreConversationSettlesImages(t *testing.T) {
	turns := []models.Message{
		{ID: "a", Role: models.RoleAssistant, Content: "x", ImageURL: "https://cdn.example/a.png", IsImageLoading: true},
	}
	c := RestoreConversation(turns)

	m, _ := c.Get("a")
	if m.IsImageLoading {
		t.Error("restored turns must not carry loading flags")
	}
	c.SetPartialImage("a", "https://cdn.example/a.png")
	if m, _ := c.Get("a"); m.IsImageLoading {
		t.Error("restored image URL is settled and must not re-enter loading")
	}
}
