package composer

import (
	"time"

	"github.com/adreach/backend/internal/models"
	"github.com/oklog/ulid/v2"
)

// Conversation is the append-only ordered list of turns. Not safe for
// concurrent use; the owning Session serializes access.
type Conversation struct {
	turns   []models.Message
	settled map[string]string // turn id -> image URL that finished loading
}

func NewConversation() *Conversation {
	return &Conversation{settled: make(map[string]string)}
}

// RestoreConversation rebuilds a conversation from persisted turns, keeping
// order. Persisted turns are always post-stream, so their images count as
// settled.
func RestoreConversation(turns []models.Message) *Conversation {
	c := &Conversation{
		turns:   make([]models.Message, len(turns)),
		settled: make(map[string]string),
	}
	copy(c.turns, turns)
	for i := range c.turns {
		c.turns[i].IsImageLoading = false
		if c.turns[i].ImageURL != "" {
			c.settled[c.turns[i].ID] = c.turns[i].ImageURL
		}
	}
	return c
}

func newTurnID() string {
	return ulid.Make().String()
}

func (c *Conversation) AppendUserTurn(text string, file *models.AttachedFile) models.Message {
	m := models.Message{
		ID:           newTurnID(),
		Role:         models.RoleUser,
		Content:      text,
		Timestamp:    time.Now(),
		AttachedFile: file,
	}
	c.turns = append(c.turns, m)
	return m
}

// AppendAssistantPlaceholder creates an empty assistant turn for decoder
// events to fill and returns its id.
func (c *Conversation) AppendAssistantPlaceholder() string {
	m := models.Message{
		ID:        newTurnID(),
		Role:      models.RoleAssistant,
		Timestamp: time.Now(),
	}
	c.turns = append(c.turns, m)
	return m.ID
}

// AppendQuestionTurn adds an assistant turn holding a guided onboarding
// question emitted verbatim, with no AI involvement.
func (c *Conversation) AppendQuestionTurn(text string) models.Message {
	m := models.Message{
		ID:         newTurnID(),
		Role:       models.RoleAssistant,
		Content:    text,
		Timestamp:  time.Now(),
		IsQuestion: true,
	}
	c.turns = append(c.turns, m)
	return m
}

func (c *Conversation) find(id string) *models.Message {
	for i := range c.turns {
		if c.turns[i].ID == id {
			return &c.turns[i]
		}
	}
	return nil
}

func (c *Conversation) AppendDelta(id, delta string) {
	if m := c.find(id); m != nil {
		m.Content += delta
	}
}

func (c *Conversation) ReplaceContent(id, content string) {
	if m := c.find(id); m != nil {
		m.Content = content
	}
}

// SetPartialImage marks an image as in-flight for the turn. A URL the turn
// has already settled never re-enters the loading state.
func (c *Conversation) SetPartialImage(id, url string) {
	m := c.find(id)
	if m == nil {
		return
	}
	if c.settled[id] == url {
		return
	}
	m.ImageURL = url
	m.IsImageLoading = true
}

func (c *Conversation) FinishImage(id, url string) {
	m := c.find(id)
	if m == nil {
		return
	}
	if url != "" {
		m.ImageURL = url
	}
	m.IsImageLoading = false
	c.settled[id] = m.ImageURL
}

// Fail replaces the turn's content with a terminal failure message and
// clears its loading state.
func (c *Conversation) Fail(id, message string) {
	m := c.find(id)
	if m == nil {
		return
	}
	m.Content = message
	m.IsImageLoading = false
	c.settled[id] = m.ImageURL
}

// FinalizeAll force-clears every loading flag. Called on stream closure so
// an upstream that never sent response_complete cannot leave a spinner on.
func (c *Conversation) FinalizeAll() {
	for i := range c.turns {
		if c.turns[i].IsImageLoading {
			c.turns[i].IsImageLoading = false
			c.settled[c.turns[i].ID] = c.turns[i].ImageURL
		}
	}
}

// Turns returns the turns in insertion order as a copy.
func (c *Conversation) Turns() []models.Message {
	out := make([]models.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int { return len(c.turns) }

// Get returns a copy of the turn with the given id.
func (c *Conversation) Get(id string) (models.Message, bool) {
	if m := c.find(id); m != nil {
		return *m, true
	}
	return models.Message{}, false
}
