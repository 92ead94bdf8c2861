package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which order a payment intent produced. Entries
// expire; the database unique index is what guarantees one order per intent.
type IdempotencyStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewIdempotencyStore(rdb redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: TTLIdempotency}
}

func (s *IdempotencyStore) Get(ctx context.Context, paymentIntentID string) (int64, bool, error) {
	orderID, err := s.rdb.Get(ctx, IdemOrderPaymentKey(paymentIntentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return orderID, true, nil
}

func (s *IdempotencyStore) Set(ctx context.Context, paymentIntentID string, orderID int64) error {
	return s.rdb.Set(ctx, IdemOrderPaymentKey(paymentIntentID), orderID, s.ttl).Err()
}
