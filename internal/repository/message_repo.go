package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
	"triagedesk/internal/stream"
	"triagedesk/pkg/metrics"
	"triagedesk/pkg/outbox"
)

// MessageRepository owns the append-only message log and the denormalized
// dashboard read model. Writes also record a change event in the outbox,
// inside the same transaction.
type MessageRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
}

func NewMessageRepository(db *pgxpool.Pool, ob *outbox.Repository) *MessageRepository {
	return &MessageRepository{db: db, outbox: ob}
}

// Create appends a message row and its change event atomically. The
// routing key depends on the message type: customer messages announce
// message.created, agent replies message.replied. The generated id and
// created_at are written back into m.
func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO messages (customer_id, content, message_type, urgency_score, agent_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err = tx.QueryRow(ctx, query,
		m.CustomerID, m.Content, m.MessageType, m.UrgencyScore, m.AgentID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return err
	}

	routingKey := stream.RKMessageCreated
	if m.MessageType == model.MessageTypeAgent {
		routingKey = stream.RKMessageReplied
	}

	payload := stream.MessageEventPayload{
		MessageID:    m.ID,
		CustomerID:   m.CustomerID,
		MessageType:  m.MessageType,
		UrgencyScore: m.UrgencyScore,
		AgentID:      m.AgentID,
		CreatedAt:    m.CreatedAt,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "message", &m.ID, routingKey, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindByID returns a message row by id.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	query := `
        SELECT id, customer_id, content, message_type, urgency_score, agent_id, created_at
        FROM messages
        WHERE id = $1
    `
	var m model.Message
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.CustomerID, &m.Content, &m.MessageType,
		&m.UrgencyScore, &m.AgentID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByCustomer returns all messages for one customer, newest first.
func (r *MessageRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Message, error) {
	query := `
        SELECT id, customer_id, content, message_type, urgency_score, agent_id, created_at
        FROM messages
        WHERE customer_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		err := rows.Scan(
			&m.ID, &m.CustomerID, &m.Content, &m.MessageType,
			&m.UrgencyScore, &m.AgentID, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

const dashboardSelect = `
        SELECT m.id,
               m.content,
               m.message_type,
               m.urgency_score,
               m.created_at,
               m.agent_id,
               c.id,
               c.email,
               c.name,
               p.loan_status,
               p.account_status,
               COALESCE(mc.message_count, 0),
               a.agent_id,
               a.agent_name,
               a.status,
               a.assigned_at
        FROM messages m
        JOIN customers c ON c.id = m.customer_id
        LEFT JOIN customer_profiles p ON p.customer_id = c.id
        LEFT JOIN agent_assignments a ON a.message_id = m.id
        LEFT JOIN (
            SELECT customer_id, COUNT(*) AS message_count
            FROM messages
            GROUP BY customer_id
        ) mc ON mc.customer_id = c.id
`

// ListDashboard returns the triage queue: customer messages joined with
// customer, profile and assignment data, most urgent first, newest first
// within the same urgency.
func (r *MessageRepository) ListDashboard(ctx context.Context, limit int) ([]model.DashboardMessage, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("list", "dashboard_messages", time.Since(start))
	}()

	query := dashboardSelect + `
        WHERE m.message_type = 'customer'
        ORDER BY m.urgency_score DESC, m.created_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDashboardRows(rows)
}

// Search matches the query against message content, customer email and
// customer name, case-insensitively.
func (r *MessageRepository) Search(ctx context.Context, query string, limit int) ([]model.DashboardMessage, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("search", "dashboard_messages", time.Since(start))
	}()

	sql := dashboardSelect + `
        WHERE m.content ILIKE '%' || $1 || '%'
           OR c.email ILIKE '%' || $1 || '%'
           OR c.name ILIKE '%' || $1 || '%'
        ORDER BY m.urgency_score DESC, m.created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDashboardRows(rows)
}

// GetDashboardByID returns a single message in the dashboard projection,
// including fresh assignment data.
func (r *MessageRepository) GetDashboardByID(ctx context.Context, id string) (*model.DashboardMessage, error) {
	query := dashboardSelect + `
        WHERE m.id = $1
    `
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs, err := scanDashboardRows(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &msgs[0], nil
}

func scanDashboardRows(rows pgx.Rows) ([]model.DashboardMessage, error) {
	messages := []model.DashboardMessage{}
	for rows.Next() {
		var d model.DashboardMessage
		err := rows.Scan(
			&d.ID,
			&d.Content,
			&d.MessageType,
			&d.UrgencyScore,
			&d.CreatedAt,
			&d.AgentID,
			&d.CustomerID,
			&d.CustomerEmail,
			&d.CustomerName,
			&d.LoanStatus,
			&d.AccountStatus,
			&d.CustomerMessageCount,
			&d.AssignedAgentID,
			&d.AssignedAgentName,
			&d.AssignmentStatus,
			&d.AssignedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, d)
	}
	return messages, rows.Err()
}
