package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "adreach_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	StreamFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "adreach_stream_frames_total", Help: "Decoded AI stream frames"},
		[]string{"type"},
	)
	StreamMalformed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "adreach_stream_malformed_total", Help: "Skipped malformed stream payloads"},
	)
	StaleEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "adreach_stale_events_dropped_total", Help: "Events discarded from superseded streams"},
	)
	AIStreamLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "adreach_ai_stream_seconds", Help: "AI stream duration from open to close"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "adreach_composer_sessions", Help: "Live composer sessions"},
	)
	SnapshotSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "adreach_snapshot_saves_total", Help: "Snapshot persistence outcomes"},
		[]string{"intent", "result"},
	)
	CampaignSubmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "adreach_campaign_submits_total", Help: "Campaign submission outcomes"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		APIRequests,
		StreamFrames,
		StreamMalformed,
		StaleEventsDropped,
		AIStreamLatency,
		ActiveSessions,
		SnapshotSaves,
		CampaignSubmits,
	)
}
