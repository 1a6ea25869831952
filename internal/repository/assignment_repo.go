package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
	"triagedesk/internal/stream"
	"triagedesk/pkg/outbox"
)

// AssignmentRepository holds the claim records. The unique constraint on
// message_id is what provides last-writer-wins semantics; there is no
// application-level locking.
type AssignmentRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
}

func NewAssignmentRepository(db *pgxpool.Pool, ob *outbox.Repository) *AssignmentRepository {
	return &AssignmentRepository{db: db, outbox: ob}
}

// Upsert claims a message for an agent, overwriting any existing claim, and
// records an assignment.claimed event in the same transaction. The stored
// row is written back into a.
func (r *AssignmentRepository) Upsert(ctx context.Context, a *model.Assignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO agent_assignments (message_id, agent_id, agent_name, status, assigned_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (message_id) DO UPDATE
        SET agent_id = EXCLUDED.agent_id,
            agent_name = EXCLUDED.agent_name,
            status = EXCLUDED.status,
            assigned_at = NOW()
        RETURNING id, assigned_at
    `
	err = tx.QueryRow(ctx, query, a.MessageID, a.AgentID, a.AgentName, a.Status).
		Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		return err
	}

	payload := stream.AssignmentEventPayload{
		MessageID:  a.MessageID,
		AgentID:    a.AgentID,
		AgentName:  a.AgentName,
		Status:     a.Status,
		OccurredAt: a.AssignedAt,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "assignment", &a.MessageID, stream.RKAssignmentClaimed, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteByMessageID releases a claim. Deleting a message that has no claim
// succeeds and publishes nothing; the release event is only recorded when a
// row actually went away.
func (r *AssignmentRepository) DeleteByMessageID(ctx context.Context, messageID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM agent_assignments WHERE message_id = $1`, messageID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		payload := stream.AssignmentEventPayload{
			MessageID:  messageID,
			OccurredAt: time.Now().UTC(),
		}
		if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "assignment", &messageID, stream.RKAssignmentReleased, payload); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindByMessageID returns the current claim for a message, or pgx.ErrNoRows
// when the message is unassigned.
func (r *AssignmentRepository) FindByMessageID(ctx context.Context, messageID string) (*model.Assignment, error) {
	query := `
        SELECT id, message_id, agent_id, agent_name, status, assigned_at
        FROM agent_assignments
        WHERE message_id = $1
    `
	var a model.Assignment
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&a.ID, &a.MessageID, &a.AgentID, &a.AgentName, &a.Status, &a.AssignedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
