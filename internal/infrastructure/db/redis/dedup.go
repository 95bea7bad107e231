package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
)

const dedupTTL = time.Hour

// DedupChecker provides idempotency checks for webhook deliveries.
// Key format: dedup:webhook:<xxh3 of the raw body, hex>
type DedupChecker struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client redis.Cmdable) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// IsDuplicate reports whether this exact body has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, body []byte) (bool, error) {
	n, err := d.client.Exists(ctx, Key(body)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this body has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, body []byte) error {
	if err := d.client.Set(ctx, Key(body), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

// Key derives the dedup key for a webhook body.
func Key(body []byte) string {
	return "dedup:webhook:" + strconv.FormatUint(xxh3.Hash(body), 16)
}
