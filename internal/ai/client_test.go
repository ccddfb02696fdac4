package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adreach/backend/internal/composer"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/stream"
	"go.uber.org/zap"
)

func TestStreamChatDecodesUpstreamFrames(t *testing.T) {
	var got chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"text_delta\",\"content\":\"안녕하세요\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"response_complete\",\"fullText\":\"안녕하세요 사장님\"}\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	src, err := c.StreamChat(context.Background(), composer.ChatRequest{
		Message:  "카페 홍보 문구 만들어줘",
		Previous: []models.Message{{ID: "1", Role: models.RoleUser, Content: "이전 메시지"}},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer src.Close()

	if got.Message != "카페 홍보 문구 만들어줘" {
		t.Errorf("upstream saw message %q", got.Message)
	}
	if len(got.PreviousMessages) != 1 {
		t.Errorf("upstream saw %d previous messages", len(got.PreviousMessages))
	}

	ev, err := src.Next()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if d, ok := ev.(stream.TextDelta); !ok || d.Content != "안녕하세요" {
		t.Errorf("first event = %#v", ev)
	}

	ev, err = src.Next()
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if rc, ok := ev.(stream.ResponseComplete); !ok || rc.FullText != "안녕하세요 사장님" {
		t.Errorf("second event = %#v", ev)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("want io.EOF after complete, got %v", err)
	}
}

func TestStreamChatRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	if _, err := c.StreamChat(context.Background(), composer.ChatRequest{Message: "x"}); err == nil {
		t.Fatal("expected an error for a 503 response")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	for i := 0; i < 5; i++ {
		if _, err := c.StreamChat(context.Background(), composer.ChatRequest{Message: "x"}); err == nil {
			t.Fatalf("call %d unexpectedly succeeded", i)
		}
	}

	srv.Close()
	_, err := c.StreamChat(context.Background(), composer.ChatRequest{Message: "x"})
	if err == nil {
		t.Fatal("expected the open breaker to refuse the call")
	}
}

func TestAbruptUpstreamCloseSynthesizesClosure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"text_delta\",\"content\":\"부분\"}\n\n")
		// Connection ends without a response_complete frame.
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	src, err := c.StreamChat(context.Background(), composer.ChatRequest{Message: "x"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); err != nil {
		t.Fatalf("delta: %v", err)
	}
	ev, err := src.Next()
	if err != nil {
		t.Fatalf("want synthesized closure, got error %v", err)
	}
	if _, ok := ev.(stream.StreamClosed); !ok {
		t.Errorf("event = %#v, want StreamClosed", ev)
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("want io.EOF at the end, got %v", err)
	}
}
