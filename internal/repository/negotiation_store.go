package repository

// Pending partial offers live in Redis so every bot replica sees the same
// negotiation for a holder and stale offers disappear on their own through
// key expiry.  One key per holder; a new offer overwrites the old one.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/concept-booking/internal/model"
)

// RedisNegotiations implements booking.NegotiationStore on top of Redis.
type RedisNegotiations struct {
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewRedisNegotiations returns a store that keeps offers for ttl.  A zero
// ttl keeps them until they are answered or replaced.
func NewRedisNegotiations(rdb *redis.Client, ttl time.Duration) *RedisNegotiations {
	return &RedisNegotiations{RDB: rdb, TTL: ttl, Prefix: "offer"}
}

func (s *RedisNegotiations) key(holderID string) string {
	return s.Prefix + ":" + holderID
}

func (s *RedisNegotiations) Get(ctx context.Context, holderID string) (model.Negotiation, bool, error) {
	raw, err := s.RDB.Get(ctx, s.key(holderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Negotiation{}, false, nil
	}
	if err != nil {
		return model.Negotiation{}, false, fmt.Errorf("redis get offer: %w", err)
	}
	var n model.Negotiation
	if err := json.Unmarshal(raw, &n); err != nil {
		// A corrupt entry is as good as none; drop it so it cannot linger.
		_ = s.RDB.Del(ctx, s.key(holderID)).Err()
		return model.Negotiation{}, false, nil
	}
	return n, true, nil
}

func (s *RedisNegotiations) Put(ctx context.Context, n model.Negotiation) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.RDB.Set(ctx, s.key(n.HolderID), b, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis put offer: %w", err)
	}
	return nil
}

func (s *RedisNegotiations) Delete(ctx context.Context, holderID string) error {
	if err := s.RDB.Del(ctx, s.key(holderID)).Err(); err != nil {
		return fmt.Errorf("redis delete offer: %w", err)
	}
	return nil
}
