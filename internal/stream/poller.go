package stream

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"triagedesk/internal/model"
)

// RKDashboardRefreshed is the synthetic key emitted by the polling
// fallback. It carries a full dashboard snapshot instead of a delta.
const RKDashboardRefreshed = "dashboard.refreshed"

type DashboardLister interface {
	ListDashboard(ctx context.Context, limit int) ([]model.DashboardMessage, error)
}

// RefreshPayload is the polling fallback's snapshot event.
type RefreshPayload struct {
	Messages []model.DashboardMessage `json:"messages"`
	Count    int                      `json:"count"`
}

// Poller is the degraded-mode Source: when the broker is unreachable it
// re-reads the dashboard on a fixed interval and emits snapshot events.
// Consumers built against Source work identically in either mode.
type Poller struct {
	dashboard DashboardLister
	interval  time.Duration
	limit     int
	events    chan Event
	logger    *zap.Logger
}

func NewPoller(dashboard DashboardLister, interval time.Duration, limit int, logger *zap.Logger) *Poller {
	return &Poller{
		dashboard: dashboard,
		interval:  interval,
		limit:     limit,
		events:    make(chan Event, 1),
		logger:    logger,
	}
}

func (p *Poller) Events() <-chan Event {
	return p.events
}

// Run polls until the context is cancelled. A failed read is logged and
// skipped; the next tick tries again.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.events)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.emitSnapshot(ctx); err != nil {
				p.logger.Warn("Dashboard poll failed", zap.Error(err))
			}
		}
	}
}

func (p *Poller) emitSnapshot(ctx context.Context) error {
	msgs, err := p.dashboard.ListDashboard(ctx, p.limit)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(RefreshPayload{Messages: msgs, Count: len(msgs)})
	if err != nil {
		return err
	}

	evt := Event{
		RoutingKey: RKDashboardRefreshed,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}

	// Snapshots supersede each other; drop the stale one if the consumer
	// has not caught up.
	select {
	case p.events <- evt:
	default:
		select {
		case <-p.events:
		default:
		}
		select {
		case p.events <- evt:
		default:
		}
	}
	return nil
}
