package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triagedesk/internal/model"
)

type stubDashboard struct {
	rows  []model.DashboardMessage
	err   error
	calls atomic.Int32
}

func (s *stubDashboard) ListDashboard(_ context.Context, limit int) ([]model.DashboardMessage, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.rows) > limit {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func TestPollerEmitsSnapshots(t *testing.T) {
	dashboard := &stubDashboard{rows: []model.DashboardMessage{
		{ID: "msg-1", Content: "urgent", UrgencyScore: 90},
		{ID: "msg-2", Content: "calm", UrgencyScore: 25},
	}}
	p := NewPoller(dashboard, 10*time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	select {
	case evt := <-p.Events():
		assert.Equal(t, RKDashboardRefreshed, evt.RoutingKey)

		var payload RefreshPayload
		require.NoError(t, json.Unmarshal(evt.Payload, &payload))
		assert.Equal(t, 2, payload.Count)
		assert.Equal(t, "msg-1", payload.Messages[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot emitted")
	}
}

func TestPollerKeepsGoingAfterReadFailure(t *testing.T) {
	dashboard := &stubDashboard{err: errors.New("db down")}
	p := NewPoller(dashboard, 5*time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return dashboard.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "poller should retry after failures")
}

func TestPollerStopsOnCancel(t *testing.T) {
	dashboard := &stubDashboard{}
	p := NewPoller(dashboard, time.Millisecond, 50, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	// Channel is closed after Run returns; drain any buffered snapshot.
	for range p.Events() {
	}
}
