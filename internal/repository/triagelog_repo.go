package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
)

// TriageLogRepository stores the audit trail the worker writes for every
// change event it consumes.
type TriageLogRepository struct {
	db *pgxpool.Pool
}

func NewTriageLogRepository(db *pgxpool.Pool) *TriageLogRepository {
	return &TriageLogRepository{db: db}
}

func (r *TriageLogRepository) Insert(ctx context.Context, l *model.TriageLog) error {
	query := `
        INSERT INTO triage_log (event_type, message_id, detail, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	_, err := r.db.Exec(ctx, query, l.EventType, l.MessageID, l.Detail)
	return err
}
