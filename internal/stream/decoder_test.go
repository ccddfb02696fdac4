package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestFramePayload(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
	}{
		{"plain delta", `data: {"type":"text_delta","content":"hi"}`, true},
		{"no prefix", `{"type":"text_delta"}`, false},
		{"event line", `event: message`, false},
		{"empty payload", `data: `, false},
		{"bare brace", `data: {`, false},
		{"too short", `data: {"a":1}`, false},
		{"truncated mid-object", `data: {"type":"tex`, false},
		{"missing type", `data: {"content":"hello world"}`, false},
		{"response prefix noise", `data: {"responseText":"partial"}`, false},
		{"trailing whitespace ok", `data: {"type":"text_delta","content":"x"}  `, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := framePayload(tt.line)
			if ok != tt.ok {
				t.Errorf("framePayload(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
		})
	}
}

func collect(t *testing.T, input string) []Event {
	t.Helper()
	d := NewDecoder(strings.NewReader(input), zap.NewNop())
	var events []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoderSequence(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type":"text_delta","content":"안녕"}`,
		``,
		`data: {"type":"text_delta","content":"하세요"}`,
		``,
		`data: {"type":"partial_image","imageUrl":"https://cdn.example/p1.png"}`,
		``,
		`data: {"type":"image_generated","imageUrl":"https://cdn.example/final.png"}`,
		``,
		`data: {"type":"response_complete","fullText":"안녕하세요","conciseTitle":"가을 할인"}`,
		``,
	}, "\n")

	events := collect(t, input)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	if d, ok := events[0].(TextDelta); !ok || d.Content != "안녕" {
		t.Errorf("events[0] = %#v, want TextDelta 안녕", events[0])
	}
	if d, ok := events[1].(TextDelta); !ok || d.Content != "하세요" {
		t.Errorf("events[1] = %#v, want TextDelta 하세요", events[1])
	}
	if p, ok := events[2].(PartialImage); !ok || p.ImageURL != "https://cdn.example/p1.png" {
		t.Errorf("events[2] = %#v, want PartialImage", events[2])
	}
	if g, ok := events[3].(ImageGenerated); !ok || g.ImageURL != "https://cdn.example/final.png" {
		t.Errorf("events[3] = %#v, want ImageGenerated", events[3])
	}
	done, ok := events[4].(ResponseComplete)
	if !ok {
		t.Fatalf("events[4] = %#v, want ResponseComplete", events[4])
	}
	if done.FullText != "안녕하세요" || done.Sidecar.ConciseTitle != "가을 할인" {
		t.Errorf("ResponseComplete = %#v", done)
	}
}

func TestDecoderSkipsTruncatedFrame(t *testing.T) {
	// A frame split mid-object must be dropped without killing the stream;
	// the complete retransmission afterwards applies normally.
	input := strings.Join([]string{
		`data: {"type":"tex`,
		`data: {"type":"text_delta","content":"whole"}`,
		`data: {"type":"response_complete","fullText":"whole"}`,
	}, "\n")

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %#v", len(events), events)
	}
	if d, ok := events[0].(TextDelta); !ok || d.Content != "whole" {
		t.Errorf("events[0] = %#v, want TextDelta whole", events[0])
	}
}

func TestDecoderCountsMalformedJSON(t *testing.T) {
	// Passes the shape guards but is not valid JSON.
	input := strings.Join([]string{
		`data: {"type":"text_delta","content":}`,
		`data: {"type":"text_delta","content":"ok"}`,
	}, "\n")

	d := NewDecoder(strings.NewReader(input), zap.NewNop())
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if td, ok := ev.(TextDelta); !ok || td.Content != "ok" {
		t.Errorf("got %#v, want TextDelta ok", ev)
	}
	if d.Malformed() != 1 {
		t.Errorf("Malformed() = %d, want 1", d.Malformed())
	}
}

func TestDecoderSynthesizesCompletionOnAbruptEnd(t *testing.T) {
	input := `data: {"type":"text_delta","content":"partial answer"}` + "\n"

	events := collect(t, input)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %#v", len(events), events)
	}
	if _, ok := events[1].(StreamClosed); !ok {
		t.Errorf("events[1] = %#v, want StreamClosed", events[1])
	}
}

func TestDecoderNoSynthesisAfterComplete(t *testing.T) {
	input := `data: {"type":"response_complete","fullText":"done"}` + "\n"

	events := collect(t, input)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	if _, ok := events[0].(ResponseComplete); !ok {
		t.Errorf("events[0] = %#v, want ResponseComplete", events[0])
	}
}

func TestDecoderErrorFrame(t *testing.T) {
	input := `data: {"type":"error","error":"rate limited"}` + "\n"

	d := NewDecoder(strings.NewReader(input), zap.NewNop())
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	ee, ok := ev.(ErrorEvent)
	if !ok || ee.Message != "rate limited" {
		t.Errorf("got %#v, want ErrorEvent rate limited", ev)
	}
}
