// Package snapshot persists composer session state so an advertiser can
// leave for a payment redirect and come back to the exact same draft and
// conversation.
package snapshot

import (
	"context"
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
)

// Intent selects which record a save targets. Full is the complete session
// snapshot used by restore; Light is the trimmed recovery record (message,
// image, delivery policy) written on a slower cadence.
type Intent int

const (
	IntentFull Intent = iota
	IntentLight
)

// Snapshot is the single persisted schema for a composer session.
type Snapshot struct {
	UserID         string           `json:"userId"`
	Draft          draft.Draft      `json:"draft"`
	Messages       []models.Message `json:"messages,omitempty"`
	SequencerPhase int              `json:"sequencerPhase"`
	SequencerIndex int              `json:"sequencerIndex"`
	Answers        map[int]string   `json:"answers,omitempty"`
	Generation     uint64           `json:"generation"`
	SavedAt        time.Time        `json:"savedAt"`
}

// Light returns the recovery subset of the snapshot: template message,
// image and delivery policy, no conversation.
func (s Snapshot) Light() Snapshot {
	d := draft.Draft{
		CampaignName:    s.Draft.CampaignName,
		AdMedium:        s.Draft.AdMedium,
		TemplateTitle:   s.Draft.TemplateTitle,
		SMSTextContent:  s.Draft.SMSTextContent,
		ImageURL:        s.Draft.ImageURL,
		SendPolicy:      s.Draft.SendPolicy,
		ValidityStart:   s.Draft.ValidityStart,
		ValidityEnd:     s.Draft.ValidityEnd,
		MaxRecipients:   s.Draft.MaxRecipients,
		BatchSendDate:   s.Draft.BatchSendDate,
		BatchSendTime:   s.Draft.BatchSendTime,
		BatchRecipients: s.Draft.BatchRecipients,
	}
	return Snapshot{UserID: s.UserID, Draft: d, SavedAt: s.SavedAt}
}

// NonTrivial reports whether the snapshot holds anything worth persisting.
// Fresh sessions are not written until they have content.
func (s Snapshot) NonTrivial() bool {
	return s.Draft.SMSTextContent != "" || len(s.Messages) > 0
}

// Store is the session persistence boundary. Implementations must keep the
// payment-completed marker timestamped: restoration after a payment
// redirect is only honored within a small window.
type Store interface {
	Save(ctx context.Context, userID string, snap Snapshot, intent Intent) error
	Load(ctx context.Context, userID string) (*Snapshot, error)
	Clear(ctx context.Context, userID string) error

	MarkPaymentCompleted(ctx context.Context, userID string, at time.Time) error
	PaymentCompletedAt(ctx context.Context, userID string) (time.Time, bool, error)
	ClearPaymentCompleted(ctx context.Context, userID string) error
}
