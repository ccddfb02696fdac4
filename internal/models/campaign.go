package models

import (
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/google/uuid"
)

// Campaign statuses
const (
	CampaignStatusPendingApproval = "pending_approval"
	CampaignStatusApproved        = "approved"
	CampaignStatusRejected        = "rejected"
	CampaignStatusScheduled       = "scheduled"
	CampaignStatusSending         = "sending"
	CampaignStatusSent            = "sent"
	CampaignStatusCancelled       = "cancelled"
)

// Valid state transitions: from -> []to
var ValidCampaignTransitions = map[string][]string{
	CampaignStatusPendingApproval: {CampaignStatusApproved, CampaignStatusRejected, CampaignStatusCancelled},
	CampaignStatusApproved:        {CampaignStatusScheduled, CampaignStatusSending, CampaignStatusCancelled},
	CampaignStatusScheduled:       {CampaignStatusSending, CampaignStatusCancelled},
	CampaignStatusSending:         {CampaignStatusSent},
	CampaignStatusSent:            {},
	CampaignStatusRejected:        {},
	CampaignStatusCancelled:       {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidCampaignTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Campaign is a submitted draft frozen at submission time. Payload keeps the
// full form state so the review UI and the send pipeline see exactly what
// the advertiser approved.
type Campaign struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Name        string      `json:"name"`
	Medium      string      `json:"medium"`
	Payload     draft.Draft `json:"payload"`
	UnitCost    int         `json:"unit_cost"`
	Recipients  int         `json:"recipients"`
	TotalCost   int         `json:"total_cost"`
	Status      string      `json:"status"`
	RejectNote  *string     `json:"reject_note,omitempty"`
	BatchSendAt *time.Time  `json:"batch_send_at,omitempty"` // resolved from the payload at submit time

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
