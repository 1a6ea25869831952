package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
)

type CannedMessageRepository struct {
	db *pgxpool.Pool
}

func NewCannedMessageRepository(db *pgxpool.Pool) *CannedMessageRepository {
	return &CannedMessageRepository{db: db}
}

// ListAll returns every reply template, ordered for the compose dropdown.
func (r *CannedMessageRepository) ListAll(ctx context.Context) ([]model.CannedMessage, error) {
	query := `
        SELECT id, title, content, category
        FROM canned_messages
        ORDER BY category, title
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.CannedMessage{}
	for rows.Next() {
		var t model.CannedMessage
		if err := rows.Scan(&t.ID, &t.Title, &t.Content, &t.Category); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
