package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triagedesk/internal/model"
	"triagedesk/internal/stream"
)

type fakeLogStore struct {
	entries []*model.TriageLog
	err     error
}

func (f *fakeLogStore) Insert(_ context.Context, l *model.TriageLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, l)
	return nil
}

type memDeduper struct {
	seen map[string]bool
}

func (m *memDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	k := scope + ":" + key
	if m.seen[k] {
		return false
	}
	m.seen[k] = true
	return true
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandleWritesAuditRow(t *testing.T) {
	logs := &fakeLogStore{}
	h := NewTriageLogHandler(logs, nil, zap.NewNop())

	raw := payload(t, stream.MessageEventPayload{
		MessageID: "msg-1", CustomerID: "cust-1", MessageType: model.MessageTypeCustomer, UrgencyScore: 85,
	})
	require.NoError(t, h.Handle(context.Background(), stream.RKMessageCreated, raw))

	require.Len(t, logs.entries, 1)
	assert.Equal(t, stream.RKMessageCreated, logs.entries[0].EventType)
	assert.Equal(t, "msg-1", logs.entries[0].MessageID)
	assert.Contains(t, logs.entries[0].Detail, "urgency=85")
}

func TestHandleAssignmentEvents(t *testing.T) {
	logs := &fakeLogStore{}
	h := NewTriageLogHandler(logs, nil, zap.NewNop())

	claimed := payload(t, stream.AssignmentEventPayload{
		MessageID: "msg-1", AgentID: "agent-1", AgentName: "Alice", Status: "claimed",
	})
	require.NoError(t, h.Handle(context.Background(), stream.RKAssignmentClaimed, claimed))

	released := payload(t, stream.AssignmentEventPayload{MessageID: "msg-1"})
	require.NoError(t, h.Handle(context.Background(), stream.RKAssignmentReleased, released))

	require.Len(t, logs.entries, 2)
	assert.Contains(t, logs.entries[0].Detail, "agent=agent-1")
	assert.Equal(t, "released", logs.entries[1].Detail)
}

func TestHandleSkipsRedelivery(t *testing.T) {
	logs := &fakeLogStore{}
	h := NewTriageLogHandler(logs, &memDeduper{seen: map[string]bool{}}, zap.NewNop())

	raw := payload(t, stream.MessageEventPayload{MessageID: "msg-1", CustomerID: "cust-1"})
	require.NoError(t, h.Handle(context.Background(), stream.RKMessageCreated, raw))
	require.NoError(t, h.Handle(context.Background(), stream.RKMessageCreated, raw))

	assert.Len(t, logs.entries, 1)
}

func TestHandleIgnoresUnknownRoutingKey(t *testing.T) {
	logs := &fakeLogStore{}
	h := NewTriageLogHandler(logs, nil, zap.NewNop())

	err := h.Handle(context.Background(), "something.else", payload(t, map[string]string{"x": "y"}))
	assert.NoError(t, err)
	assert.Empty(t, logs.entries)
}

func TestHandleReturnsErrorForRequeue(t *testing.T) {
	logs := &fakeLogStore{err: errors.New("db down")}
	h := NewTriageLogHandler(logs, nil, zap.NewNop())

	raw := payload(t, stream.MessageEventPayload{MessageID: "msg-1", CustomerID: "cust-1"})
	err := h.Handle(context.Background(), stream.RKMessageCreated, raw)
	assert.Error(t, err, "insert failures must be requeued")
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	logs := &fakeLogStore{}
	h := NewTriageLogHandler(logs, nil, zap.NewNop())

	err := h.Handle(context.Background(), stream.RKMessageCreated, json.RawMessage(`{"message_id": 42`))
	assert.Error(t, err)
	assert.Empty(t, logs.entries)
}
