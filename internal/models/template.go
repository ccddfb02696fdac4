package models

import (
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/google/uuid"
)

// Template is a saved message template the advertiser can load back into
// the composer.
type Template struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Name      string      `json:"name"`
	Payload   draft.Draft `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
