// Package events forwards posting lifecycle events to Redis pub/sub, where
// the Gateway picks them up for SSE.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobmate/posting-service/internal/posting"
)

// RedisPublisher publishes each event on the channel named by its type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher over rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish implements posting.EventPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, e posting.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, e.Type, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}
