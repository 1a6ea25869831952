package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotKey is where the refresher keeps the latest dashboard snapshot.
const SnapshotKey = "dashboard:snapshot"

const snapshotTTL = time.Minute

// CacheRefresher keeps a dashboard snapshot warm in Redis. It consumes any
// Source: with the broker-backed Subscriber each change event triggers a
// re-read of the dashboard; with the Poller the snapshot arrives in the
// event itself. Read paths stay on the database; the snapshot only feeds
// cheap UI refreshes.
type CacheRefresher struct {
	source    Source
	dashboard DashboardLister
	rdb       *redis.Client
	limit     int
	logger    *zap.Logger
}

func NewCacheRefresher(source Source, dashboard DashboardLister, rdb *redis.Client, limit int, logger *zap.Logger) *CacheRefresher {
	return &CacheRefresher{
		source:    source,
		dashboard: dashboard,
		rdb:       rdb,
		limit:     limit,
		logger:    logger,
	}
}

// Run consumes events until the source channel closes or ctx is cancelled.
// The source itself must be running; Run only drains its channel.
func (r *CacheRefresher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-r.source.Events():
			if !ok {
				return nil
			}
			if err := r.refresh(ctx, evt); err != nil {
				r.logger.Warn("Snapshot refresh failed",
					zap.String("routing_key", evt.RoutingKey),
					zap.Error(err),
				)
			}
		}
	}
}

func (r *CacheRefresher) refresh(ctx context.Context, evt Event) error {
	var snapshot []byte

	if evt.RoutingKey == RKDashboardRefreshed {
		// The polling fallback already carries the snapshot.
		snapshot = evt.Payload
	} else {
		msgs, err := r.dashboard.ListDashboard(ctx, r.limit)
		if err != nil {
			return err
		}
		snapshot, err = json.Marshal(RefreshPayload{Messages: msgs, Count: len(msgs)})
		if err != nil {
			return err
		}
	}

	if err := r.rdb.Set(ctx, SnapshotKey, snapshot, snapshotTTL).Err(); err != nil {
		return err
	}

	r.logger.Debug("Dashboard snapshot refreshed",
		zap.String("routing_key", evt.RoutingKey),
	)
	return nil
}
