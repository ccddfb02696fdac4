package stream

import (
	"encoding/json"
	"fmt"
)

// Wire discriminants emitted by the AI upstream.
const (
	TypeTextDelta        = "text_delta"
	TypeTextReplace      = "text_replace"
	TypePartialImage     = "partial_image"
	TypeImageGenerated   = "image_generated"
	TypeResponseComplete = "response_complete"
	TypeError            = "error"
)

// QuickAction is a suggested quick-reply button attached to an assistant turn.
type QuickAction struct {
	Text string `json:"text"`
}

// RecommendationSection is one block of the structured targeting
// recommendation table the upstream renders alongside the final copy.
type RecommendationSection struct {
	Section string   `json:"section"`
	Items   []string `json:"items"`
}

// Sidecar carries the side-channel fields that may ride on a text_replace or
// response_complete frame: the cleaned SMS body, quick replies, a concise
// template title, and the recommendation table.
type Sidecar struct {
	SMSTextContent           string                  `json:"smsTextContent,omitempty"`
	QuickActionButtons       []QuickAction           `json:"quickActionButtons,omitempty"`
	ConciseTitle             string                  `json:"conciseTitle,omitempty"`
	StructuredRecommendation []RecommendationSection `json:"structuredRecommendation,omitempty"`
}

// Empty reports whether no side-channel field is set.
func (s Sidecar) Empty() bool {
	return s.SMSTextContent == "" && len(s.QuickActionButtons) == 0 &&
		s.ConciseTitle == "" && len(s.StructuredRecommendation) == 0
}

// Event is the decoded form of one upstream frame. Exactly one variant per
// wire type, plus StreamClosed which the decoder synthesizes when the
// transport ends without a terminal response_complete.
type Event interface {
	kind() string
}

// TextDelta appends Content to the active assistant turn.
type TextDelta struct {
	Content string
}

// TextReplace overwrites the active turn's content wholesale. The upstream
// sends it when it re-renders a cleaned-up final version of the copy.
type TextReplace struct {
	Content string
	Sidecar Sidecar
}

// PartialImage carries an in-progress image preview for the active turn.
type PartialImage struct {
	ImageURL string
}

// ImageGenerated carries the final image for the active turn.
type ImageGenerated struct {
	ImageURL string
}

// ResponseComplete is the terminal frame of a generation.
type ResponseComplete struct {
	FullText string
	ImageURL string
	Sidecar  Sidecar
}

// ErrorEvent aborts the generation; Message replaces the turn's content.
type ErrorEvent struct {
	Message string
}

// StreamClosed is synthesized by the decoder when the byte stream ends
// before a response_complete arrives. Consumers treat it as an implicit
// completion: all loading flags must clear.
type StreamClosed struct{}

// Kind names an event by its wire type, for logging and metrics labels.
func Kind(e Event) string { return e.kind() }

func (TextDelta) kind() string        { return TypeTextDelta }
func (TextReplace) kind() string      { return TypeTextReplace }
func (PartialImage) kind() string     { return TypePartialImage }
func (ImageGenerated) kind() string   { return TypeImageGenerated }
func (ResponseComplete) kind() string { return TypeResponseComplete }
func (ErrorEvent) kind() string       { return TypeError }
func (StreamClosed) kind() string     { return "stream_closed" }

// frame is the loose wire shape before it is narrowed into an Event.
type frame struct {
	Type                     string                  `json:"type"`
	Content                  string                  `json:"content,omitempty"`
	ImageURL                 string                  `json:"imageUrl,omitempty"`
	FullText                 string                  `json:"fullText,omitempty"`
	Error                    string                  `json:"error,omitempty"`
	SMSTextContent           string                  `json:"smsTextContent,omitempty"`
	QuickActionButtons       []QuickAction           `json:"quickActionButtons,omitempty"`
	ConciseTitle             string                  `json:"conciseTitle,omitempty"`
	StructuredRecommendation []RecommendationSection `json:"structuredRecommendation,omitempty"`
}

func (f *frame) sidecar() Sidecar {
	return Sidecar{
		SMSTextContent:           f.SMSTextContent,
		QuickActionButtons:       f.QuickActionButtons,
		ConciseTitle:             f.ConciseTitle,
		StructuredRecommendation: f.StructuredRecommendation,
	}
}

// ParseEvent decodes one frame payload into its Event variant.
func ParseEvent(payload []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, err
	}

	switch f.Type {
	case TypeTextDelta:
		return TextDelta{Content: f.Content}, nil
	case TypeTextReplace:
		return TextReplace{Content: f.Content, Sidecar: f.sidecar()}, nil
	case TypePartialImage:
		return PartialImage{ImageURL: f.ImageURL}, nil
	case TypeImageGenerated:
		return ImageGenerated{ImageURL: f.ImageURL}, nil
	case TypeResponseComplete:
		return ResponseComplete{FullText: f.FullText, ImageURL: f.ImageURL, Sidecar: f.sidecar()}, nil
	case TypeError:
		return ErrorEvent{Message: f.Error}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", f.Type)
	}
}

// MarshalFrame renders an event back into a `data: {...}` SSE frame. The
// composer relay uses it to forward applied events downstream.
func MarshalFrame(e Event) ([]byte, error) {
	var f frame
	switch ev := e.(type) {
	case TextDelta:
		f = frame{Type: TypeTextDelta, Content: ev.Content}
	case TextReplace:
		f = frame{Type: TypeTextReplace, Content: ev.Content}
		f.applySidecar(ev.Sidecar)
	case PartialImage:
		f = frame{Type: TypePartialImage, ImageURL: ev.ImageURL}
	case ImageGenerated:
		f = frame{Type: TypeImageGenerated, ImageURL: ev.ImageURL}
	case ResponseComplete:
		f = frame{Type: TypeResponseComplete, FullText: ev.FullText, ImageURL: ev.ImageURL}
		f.applySidecar(ev.Sidecar)
	case ErrorEvent:
		f = frame{Type: TypeError, Error: ev.Message}
	case StreamClosed:
		f = frame{Type: TypeResponseComplete}
	default:
		return nil, fmt.Errorf("unsupported event %T", e)
	}

	body, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+8)
	out = append(out, "data: "...)
	out = append(out, body...)
	out = append(out, '\n', '\n')
	return out, nil
}

func (f *frame) applySidecar(s Sidecar) {
	f.SMSTextContent = s.SMSTextContent
	f.QuickActionButtons = s.QuickActionButtons
	f.ConciseTitle = s.ConciseTitle
	f.StructuredRecommendation = s.StructuredRecommendation
}
