package stream

import (
	"strings"
	"testing"
)

func TestParseEventVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, ev Event)
	}{
		{
			"text_replace with sidecar",
			`{"type":"text_replace","content":"최종 문구","smsTextContent":"[가을 이벤트] 전 메뉴 20% 할인","quickActionButtons":[{"text":"이미지 바꿔줘"}],"conciseTitle":"가을 이벤트"}`,
			func(t *testing.T, ev Event) {
				r, ok := ev.(TextReplace)
				if !ok {
					t.Fatalf("got %#v", ev)
				}
				if r.Content != "최종 문구" {
					t.Errorf("content = %q", r.Content)
				}
				if r.Sidecar.SMSTextContent != "[가을 이벤트] 전 메뉴 20% 할인" {
					t.Errorf("smsTextContent = %q", r.Sidecar.SMSTextContent)
				}
				if len(r.Sidecar.QuickActionButtons) != 1 || r.Sidecar.QuickActionButtons[0].Text != "이미지 바꿔줘" {
					t.Errorf("quickActionButtons = %#v", r.Sidecar.QuickActionButtons)
				}
			},
		},
		{
			"response_complete with recommendation",
			`{"type":"response_complete","fullText":"done","structuredRecommendation":[{"section":"추천 타겟","items":["20대 여성","강남구"]}]}`,
			func(t *testing.T, ev Event) {
				c, ok := ev.(ResponseComplete)
				if !ok {
					t.Fatalf("got %#v", ev)
				}
				rec := c.Sidecar.StructuredRecommendation
				if len(rec) != 1 || rec[0].Section != "추천 타겟" || len(rec[0].Items) != 2 {
					t.Errorf("structuredRecommendation = %#v", rec)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ParseEvent: %v", err)
			}
			tt.check(t, ev)
		})
	}
}

func TestParseEventUnknownType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":"heartbeat"}`)); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestMarshalFrameIsDecodable(t *testing.T) {
	out, err := MarshalFrame(TextDelta{Content: "조각"})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	line := strings.TrimRight(string(out), "\n")
	payload, ok := framePayload(line)
	if !ok {
		t.Fatalf("relay frame rejected by own guards: %q", line)
	}
	ev, err := ParseEvent([]byte(payload))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if d, ok := ev.(TextDelta); !ok || d.Content != "조각" {
		t.Errorf("got %#v", ev)
	}
}

func TestMarshalFrameStreamClosedBecomesCompletion(t *testing.T) {
	out, err := MarshalFrame(StreamClosed{})
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	if !strings.Contains(string(out), `"response_complete"`) {
		t.Errorf("StreamClosed should relay as response_complete, got %s", out)
	}
}
