package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
	"triagedesk/pkg/metrics"
)

type MessageFinder interface {
	FindByID(ctx context.Context, id string) (*model.Message, error)
}

type AssignmentStore interface {
	Upsert(ctx context.Context, a *model.Assignment) error
	DeleteByMessageID(ctx context.Context, messageID string) error
}

const defaultAssignmentStatus = "claimed"

// AssignmentService implements the claim state machine:
// Unassigned -> Claimed -> Unassigned (unclaim) or Claimed by another agent
// (re-claim overwrites). Concurrency rides entirely on the database's
// upsert-by-unique-key; the last writer wins.
type AssignmentService struct {
	messages    MessageFinder
	assignments AssignmentStore
	logger      *zap.Logger
}

func NewAssignmentService(messages MessageFinder, assignments AssignmentStore, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		messages:    messages,
		assignments: assignments,
		logger:      logger,
	}
}

// Claim binds the message to the agent, overwriting any existing claim.
// Fails with NotFound when the message does not exist.
func (s *AssignmentService) Claim(ctx context.Context, messageID, agentID, agentName, status string) (*model.Assignment, error) {
	if agentID == "" {
		return nil, apperr.Validation("agent_id is required")
	}

	if _, err := s.messages.FindByID(ctx, messageID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.AssignmentOps.WithLabelValues("claim", "not_found").Inc()
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Storage("failed to look up message", err)
	}

	if agentName == "" {
		agentName = fmt.Sprintf("Agent %s", agentID)
	}
	if status == "" {
		status = defaultAssignmentStatus
	}

	a := &model.Assignment{
		MessageID: messageID,
		AgentID:   agentID,
		AgentName: agentName,
		Status:    status,
	}
	if err := s.assignments.Upsert(ctx, a); err != nil {
		metrics.AssignmentOps.WithLabelValues("claim", "failed").Inc()
		return nil, apperr.Storage("failed to assign message", err)
	}

	metrics.AssignmentOps.WithLabelValues("claim", "success").Inc()
	s.logger.Info("Message claimed",
		zap.String("message_id", messageID),
		zap.String("agent_id", agentID),
	)

	return a, nil
}

// Unclaim releases the message. Deliberately idempotent: releasing an
// unassigned message succeeds. Any authenticated agent may release any
// claim; restricting release to the claimant was considered and rejected
// so a stuck claim never blocks the queue.
func (s *AssignmentService) Unclaim(ctx context.Context, messageID, agentID string) error {
	if err := s.assignments.DeleteByMessageID(ctx, messageID); err != nil {
		metrics.AssignmentOps.WithLabelValues("unclaim", "failed").Inc()
		return apperr.Storage("failed to unassign message", err)
	}

	metrics.AssignmentOps.WithLabelValues("unclaim", "success").Inc()
	s.logger.Info("Message unclaimed",
		zap.String("message_id", messageID),
		zap.String("agent_id", agentID),
	)
	return nil
}
