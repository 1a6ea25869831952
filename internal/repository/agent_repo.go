package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
)

type AgentRepository struct {
	db *pgxpool.Pool
}

func NewAgentRepository(db *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: db}
}

// Create inserts a new agent account.
func (r *AgentRepository) Create(ctx context.Context, a *model.Agent) error {
	query := `
        INSERT INTO agents (email, name, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	return r.db.QueryRow(ctx, query, a.Email, a.Name, a.PasswordHash).Scan(&a.ID, &a.CreatedAt)
}

// FindByEmail returns the agent account for a login email.
func (r *AgentRepository) FindByEmail(ctx context.Context, email string) (*model.Agent, error) {
	query := `
        SELECT id, email, name, password_hash, created_at
        FROM agents
        WHERE email = $1
    `
	var a model.Agent
	err := r.db.QueryRow(ctx, query, email).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
