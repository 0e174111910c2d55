package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ThrottlePurpose namespaces throttle keys per action.
const ThrottlePurpose = "title_request"

// ThrottleKey builds the marker key for a user: "<purpose>_<username>".
func ThrottleKey(username string) string {
	return ThrottlePurpose + "_" + username
}

// Throttle enforces one action per key per window. Markers live in redis
// with a TTL, so clearing client-side state does not reset the limit; the
// cookie the handler sets alongside is informational only.
type Throttle struct {
	rdb    *redis.Client
	window time.Duration
}

func NewThrottle(rdb *redis.Client, window time.Duration) *Throttle {
	return &Throttle{rdb: rdb, window: window}
}

// HasRecentRequest reports whether a still-valid marker exists for key.
func (t *Throttle) HasRecentRequest(ctx context.Context, key string) (bool, error) {
	n, err := t.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordRequest sets the marker with the full window as its validity.
// The payload is the requested title, kept for operator inspection.
func (t *Throttle) RecordRequest(ctx context.Context, key, payload string) error {
	return t.rdb.Set(ctx, key, payload, t.window).Err()
}

// Window returns the throttle validity window.
func (t *Throttle) Window() time.Duration {
	return t.window
}
