package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AttachedFile is metadata for a user-supplied upload on a chat turn.
type AttachedFile struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	MIME    string `json:"mime"`
	Preview string `json:"preview,omitempty"` // data URL, images only
}

// Message is one composer conversation turn. Content only ever grows by
// append or is wholesale replaced, never partially spliced.
type Message struct {
	ID             string        `json:"id"`
	Role           string        `json:"role"`
	Content        string        `json:"content"`
	Timestamp      time.Time     `json:"timestamp"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	IsImageLoading bool          `json:"isImageLoading,omitempty"`
	IsQuestion     bool          `json:"isQuestion,omitempty"`
	AttachedFile   *AttachedFile `json:"attachedFile,omitempty"`
}
