package webhook

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
)

// Deduper tracks processed provider event IDs so that at-least-once
// delivery does not replay side effects through the handlers. An event is
// marked only after its handler completes, so a delivery that failed with an
// internal fault remains eligible for the provider's retry.
type Deduper interface {
	// Seen reports whether the event ID has already been processed.
	Seen(eventID string) (bool, error)
	// MarkSeen records the event ID as processed.
	MarkSeen(eventID string) error
}

const dedupeKeyPrefix = "webhook:event:"

// DefaultRetention bounds how long processed event IDs are remembered. The
// provider stops retrying deliveries well within this window.
const DefaultRetention = 7 * 24 * time.Hour

// RedisDeduperOptions contains the configuration for RedisDeduper
type RedisDeduperOptions struct {
	Client    redis.UniversalClient
	Retention time.Duration
}

// RedisDeduper records processed event IDs in redis with a TTL
type RedisDeduper struct {
	RedisDeduperOptions
}

var _ Deduper = &RedisDeduper{}

// NewRedisDeduper returns a Deduper backed by redis
func NewRedisDeduper(option RedisDeduperOptions) (*RedisDeduper, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if option.Retention <= 0 {
		option.Retention = DefaultRetention
	}
	return &RedisDeduper{
		RedisDeduperOptions: option,
	}, nil
}

// Seen returns true if the event ID was processed within the retention window
func (d *RedisDeduper) Seen(eventID string) (bool, error) {
	n, err := d.Client.Exists(dedupeKeyPrefix + eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen records the event ID with the retention TTL. Two concurrent
// deliveries of the same event can both pass the Seen check before either
// marks; the handlers' own idempotency guards cover that window.
func (d *RedisDeduper) MarkSeen(eventID string) error {
	return d.Client.Set(dedupeKeyPrefix+eventID, 1, d.Retention).Err()
}
