package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fullKeyPrefix    = "composer:snapshot:"
	lightKeyPrefix   = "composer:draft:"
	paymentKeyPrefix = "composer:payment:"
)

// RedisStore keeps snapshots as TTL'd JSON values.
type RedisStore struct {
	rdb      *redis.Client
	ttl      time.Duration
	lightTTL time.Duration
	log      *zap.Logger
}

func NewRedisStore(rdb *redis.Client, ttl, lightTTL time.Duration, log *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lightTTL <= 0 {
		lightTTL = 7 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl, lightTTL: lightTTL, log: log}
}

func (s *RedisStore) Save(ctx context.Context, userID string, snap Snapshot, intent Intent) error {
	key := fullKeyPrefix + userID
	ttl := s.ttl
	if intent == IntentLight {
		key = lightKeyPrefix + userID
		ttl = s.lightTTL
		snap = snap.Light()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*Snapshot, error) {
	data, err := s.rdb.Get(ctx, fullKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupted snapshot must not wedge the composer; drop it.
		s.log.Warn("dropping unreadable snapshot", zap.String("user_id", userID), zap.Error(err))
		_ = s.Clear(ctx, userID)
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, fullKeyPrefix+userID, lightKeyPrefix+userID).Err()
}

func (s *RedisStore) MarkPaymentCompleted(ctx context.Context, userID string, at time.Time) error {
	return s.rdb.Set(ctx, paymentKeyPrefix+userID, at.UTC().Format(time.RFC3339Nano), s.ttl).Err()
}

func (s *RedisStore) PaymentCompletedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	v, err := s.rdb.Get(ctx, paymentKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (s *RedisStore) ClearPaymentCompleted(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, paymentKeyPrefix+userID).Err()
}
