package events

import "context"

// Event types
const (
	EventPaymentReceived       = "payment_received"
	EventBalanceRefreshed      = "balance_refreshed"
	EventCampaignStatusChanged = "campaign_status_changed"
	EventCampaignSubmitted     = "campaign_submitted"
)

// UserStream is the pub/sub channel carrying one advertiser's events.
func UserStream(userID string) string { return "user:" + userID }

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

// PatternSubscriber fans in every stream matching a glob pattern; the
// handler also receives the concrete stream name so it can route.
type PatternSubscriber interface {
	SubscribePattern(ctx context.Context, pattern string, handler func(stream string, event Event)) error
}
