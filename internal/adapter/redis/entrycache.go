package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// EntryCache is a positive-only existence cache for published (term, lang)
// pairs. Publishes are append-only, so a positive hit can never be stale; a
// miss always falls through to PostgreSQL. Cache errors are reported to the
// caller, which treats them as misses.
type EntryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewEntryCache creates an entry existence cache with the given TTL.
func NewEntryCache(client *Client, ttl time.Duration) *EntryCache {
	return &EntryCache{rdb: client.rdb, ttl: ttl}
}

func (c *EntryCache) key(term, lang string) string {
	return fmt.Sprintf("entry_exists:%s:%s", lang, domain.NormalizeTerm(term))
}

// Exists reports whether the pair is known to be published.
// false means "unknown", not "absent".
func (c *EntryCache) Exists(ctx context.Context, term, lang string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(term, lang)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %q/%s: %w", term, lang, err)
	}
	return n > 0, nil
}

// MarkExists records that the pair is published.
func (c *EntryCache) MarkExists(ctx context.Context, term, lang string) error {
	if err := c.rdb.Set(ctx, c.key(term, lang), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("cache mark %q/%s: %w", term, lang, err)
	}
	return nil
}
