package mqhandler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"triagedesk/internal/model"
	"triagedesk/internal/stream"
)

type TriageLogStore interface {
	Insert(ctx context.Context, l *model.TriageLog) error
}

// DedupGuard suppresses redelivered events. May be nil.
type DedupGuard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// TriageLogHandler consumes change events off the stream and writes one
// audit row per event. Redeliveries are filtered through the dedup guard;
// when the guard is unavailable a duplicate audit row is acceptable.
type TriageLogHandler struct {
	logs    TriageLogStore
	deduper DedupGuard
	logger  *zap.Logger
}

func NewTriageLogHandler(logs TriageLogStore, deduper DedupGuard, logger *zap.Logger) *TriageLogHandler {
	return &TriageLogHandler{
		logs:    logs,
		deduper: deduper,
		logger:  logger,
	}
}

// Handle processes one delivery. Unknown routing keys are logged and acked;
// they are not worth requeueing.
func (h *TriageLogHandler) Handle(ctx context.Context, routingKey string, raw json.RawMessage) error {
	entry, err := h.buildEntry(routingKey, raw)
	if err != nil {
		h.logger.Error("Failed to decode event payload",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return err
	}
	if entry == nil {
		h.logger.Warn("Ignoring event with unknown routing key",
			zap.String("routing_key", routingKey),
		)
		return nil
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "triagelog", dedupKey(routingKey, raw)) {
		h.logger.Debug("Skipping redelivered event",
			zap.String("routing_key", routingKey),
			zap.String("message_id", entry.MessageID),
		)
		return nil
	}

	if err := h.logs.Insert(ctx, entry); err != nil {
		h.logger.Error("Failed to write audit row",
			zap.String("routing_key", routingKey),
			zap.String("message_id", entry.MessageID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Audit row written",
		zap.String("routing_key", routingKey),
		zap.String("message_id", entry.MessageID),
	)
	return nil
}

func (h *TriageLogHandler) buildEntry(routingKey string, raw json.RawMessage) (*model.TriageLog, error) {
	switch routingKey {
	case stream.RKMessageCreated, stream.RKMessageReplied:
		var p stream.MessageEventPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		detail := fmt.Sprintf("customer=%s urgency=%d", p.CustomerID, p.UrgencyScore)
		if p.AgentID != nil {
			detail = fmt.Sprintf("customer=%s agent=%s", p.CustomerID, *p.AgentID)
		}
		return &model.TriageLog{
			EventType: routingKey,
			MessageID: p.MessageID,
			Detail:    detail,
		}, nil

	case stream.RKAssignmentClaimed, stream.RKAssignmentReleased:
		var p stream.AssignmentEventPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		detail := fmt.Sprintf("agent=%s status=%s", p.AgentID, p.Status)
		if routingKey == stream.RKAssignmentReleased {
			detail = "released"
		}
		return &model.TriageLog{
			EventType: routingKey,
			MessageID: p.MessageID,
			Detail:    detail,
		}, nil
	}

	return nil, nil
}

func dedupKey(routingKey string, raw json.RawMessage) string {
	sum := sha256.Sum256(raw)
	return routingKey + ":" + hex.EncodeToString(sum[:])
}
