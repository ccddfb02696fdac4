package snapshot

import (
	"context"
	"encoding/json"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adreach/backend/internal/draft"
	"github.com/adreach/backend/internal/models"
	"go.uber.org/zap"
)

func sampleSnapshot() Snapshot {
	d := draft.New()
	d.SMSTextContent = "[가을 이벤트] 전 메뉴 20% 할인"
	d.ImageURL = "https://cdn.example/final.png"
	d.TemplateTitle = "가을 이벤트"
	d.AddAge("20s")
	d.AddLocation("seoul", "gangnam")
	d.SetFemaleRatio(65)

	return Snapshot{
		UserID: "user-1",
		Draft:  *d,
		Messages: []models.Message{
			{ID: "01A", Role: models.RoleUser, Content: "카페 홍보하고 싶어요", Timestamp: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)},
			{ID: "01B", Role: models.RoleAssistant, Content: "광고의 목적은 무엇인가요?", IsQuestion: true, Timestamp: time.Date(2026, 8, 28, 10, 0, 1, 0, time.UTC)},
		},
		SequencerPhase: 1,
		SequencerIndex: 0,
		Answers:        map[int]string{},
		Generation:     3,
		SavedAt:        time.Date(2026, 8, 28, 10, 0, 2, 0, time.UTC),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snap := sampleSnapshot()

	if err := store.Save(ctx, snap.UserID, snap, IntentFull); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, snap.UserID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil")
	}
	if !reflect.DeepEqual(*got, snap) {
		t.Errorf("restored snapshot differs:\ngot  %#v\nwant %#v", *got, snap)
	}

	if err := store.Clear(ctx, snap.UserID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = store.Load(ctx, snap.UserID)
	if err != nil || got != nil {
		t.Errorf("after Clear: got %v, %v", got, err)
	}
}

func TestSnapshotJSONRoundTripPreservesInstants(t *testing.T) {
	snap := sampleSnapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for i := range snap.Messages {
		if !snap.Messages[i].Timestamp.Equal(back.Messages[i].Timestamp) {
			t.Errorf("message %d timestamp changed: %v -> %v",
				i, snap.Messages[i].Timestamp, back.Messages[i].Timestamp)
		}
	}
	if !reflect.DeepEqual(snap.Draft, back.Draft) {
		t.Errorf("draft changed over JSON round trip:\ngot  %#v\nwant %#v", back.Draft, snap.Draft)
	}
}

func TestLightSubset(t *testing.T) {
	snap := sampleSnapshot()
	light := snap.Light()

	if light.Draft.SMSTextContent != snap.Draft.SMSTextContent {
		t.Error("light record must keep the message body")
	}
	if light.Draft.ImageURL != snap.Draft.ImageURL {
		t.Error("light record must keep the image")
	}
	if light.Draft.SendPolicy != snap.Draft.SendPolicy {
		t.Error("light record must keep the delivery policy")
	}
	if len(light.Messages) != 0 {
		t.Error("light record must not carry the conversation")
	}
	if len(light.Draft.Locations) != 0 || light.Draft.TargetGender != "" {
		t.Error("light record must not carry targeting filters")
	}
}

func TestMemoryStoreLightKeySeparate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	snap := sampleSnapshot()

	if err := store.Save(ctx, snap.UserID, snap, IntentLight); err != nil {
		t.Fatalf("Save light: %v", err)
	}

	// The restore path reads only the full record.
	if got, _ := store.Load(ctx, snap.UserID); got != nil {
		t.Error("light save must not populate the full snapshot")
	}
	if _, ok := store.LoadLight(snap.UserID); !ok {
		t.Error("light record missing")
	}
}

func TestPaymentMarkerWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	at := time.Now().Add(-10 * time.Second)
	if err := store.MarkPaymentCompleted(ctx, "user-1", at); err != nil {
		t.Fatalf("MarkPaymentCompleted: %v", err)
	}

	got, ok, err := store.PaymentCompletedAt(ctx, "user-1")
	if err != nil || !ok {
		t.Fatalf("PaymentCompletedAt: %v %v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("marker time = %v, want %v", got, at)
	}

	if err := store.ClearPaymentCompleted(ctx, "user-1"); err != nil {
		t.Fatalf("ClearPaymentCompleted: %v", err)
	}
	if _, ok, _ := store.PaymentCompletedAt(ctx, "user-1"); ok {
		t.Error("marker should be cleared")
	}
}

func TestSaverCoalesces(t *testing.T) {
	store := NewMemoryStore()
	var version atomic.Int64

	fn := func() Snapshot {
		snap := sampleSnapshot()
		snap.Generation = uint64(version.Load())
		return snap
	}
	saver := NewSaver(store, fn, 20*time.Millisecond, 40*time.Millisecond, zap.NewNop())
	defer saver.Stop()

	// Three rapid marks must collapse into one write of the latest state.
	for i := 1; i <= 3; i++ {
		version.Store(int64(i))
		saver.Mark(IntentFull)
	}

	time.Sleep(100 * time.Millisecond)

	got, err := store.Load(context.Background(), "user-1")
	if err != nil || got == nil {
		t.Fatalf("Load: %v %v", got, err)
	}
	if got.Generation != 3 {
		t.Errorf("persisted generation = %d, want 3 (last settled state)", got.Generation)
	}
}

func TestSaverSkipsTrivialSnapshots(t *testing.T) {
	store := NewMemoryStore()
	fn := func() Snapshot {
		return Snapshot{UserID: "user-1", Draft: *draft.New()}
	}
	saver := NewSaver(store, fn, 10*time.Millisecond, 10*time.Millisecond, zap.NewNop())
	defer saver.Stop()

	saver.Mark(IntentFull)
	time.Sleep(50 * time.Millisecond)

	if got, _ := store.Load(context.Background(), "user-1"); got != nil {
		t.Error("trivial snapshot should not be persisted")
	}
}
