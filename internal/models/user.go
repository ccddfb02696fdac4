package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	BusinessName *string   `json:"business_name,omitempty"`
	Industry     string    `json:"industry"`
	Balance      int       `json:"balance"` // whole KRW
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
