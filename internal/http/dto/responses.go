package dto

import (
	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
)

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// SessionResponse is the composer state handed to the client on start or
// resume.
type SessionResponse struct {
	Restored bool             `json:"restored"`
	Messages []models.Message `json:"messages"`
	Draft    draft.Draft      `json:"draft"`
}

// QuestionResponse is returned when the onboarding sequencer answers a user
// message locally instead of streaming from the AI.
type QuestionResponse struct {
	Question models.Message `json:"question"`
}

type BalanceResponse struct {
	Balance int `json:"balance"` // whole KRW
}
