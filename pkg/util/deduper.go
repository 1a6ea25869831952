package util

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is a best-effort SetNX guard. Bulk import uses it so a
// re-uploaded batch does not double-ingest the same rows within the TTL
// window. When Redis is unavailable it fails open: processing proceeds.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce returns true the first time the (scope, key) pair is seen
// within the TTL window, false on a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, redisKey, 1, d.ttl).Result()
	if err != nil {
		// Fail open: dedup is an optimization, not a correctness guard.
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("scope", scope),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicate record",
			zap.String("scope", scope),
			zap.String("dedup_key", redisKey),
		)
	}

	return ok
}

// RecordKey derives the dedup key for an import record from its contact
// email and content.
func RecordKey(email, content string) string {
	sum := sha256.Sum256([]byte(email + "\x00" + content))
	return hex.EncodeToString(sum[:])
}
