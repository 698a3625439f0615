package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/posting-service/internal/logging"
)

const defaultCacheTTL = 30 * time.Second

// CachedGate keeps snapshots of an upstream Gate in Redis for a short TTL.
// Cache failures fall through to the upstream; they are never fatal.
type CachedGate struct {
	upstream Gate
	rdb      *redis.Client
	prefix   string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewCachedGate wraps upstream. A zero ttl selects 30s.
func NewCachedGate(upstream Gate, rdb *redis.Client, ttl time.Duration) *CachedGate {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedGate{
		upstream: upstream,
		rdb:      rdb,
		prefix:   "entitlement",
		ttl:      ttl,
		logger:   logging.WithModule("entitlement-cache"),
	}
}

// Snapshot implements Gate.
func (c *CachedGate) Snapshot(ctx context.Context, companyID string) (Snapshot, error) {
	key := c.key(companyID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s Snapshot
		if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
			return s, nil
		}
		c.logger.Warn("entitlement cache entry unreadable", "company", companyID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("entitlement cache get failed", "company", companyID, "err", err)
	}

	s, err := c.upstream.Snapshot(ctx, companyID)
	if err != nil {
		return Snapshot{}, err
	}

	data, _ := json.Marshal(s)
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("entitlement cache set failed", "company", companyID, "err", err)
	}
	return s, nil
}

// Invalidate drops the cached snapshot; called after every publish so the
// next read sees the debited balance.
func (c *CachedGate) Invalidate(ctx context.Context, companyID string) error {
	if err := c.rdb.Del(ctx, c.key(companyID)).Err(); err != nil {
		return fmt.Errorf("entitlement cache del: %w", err)
	}
	return nil
}

func (c *CachedGate) key(companyID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, companyID)
}
