package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer. The id and created_at come back from the
// database.
func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	query := `
        INSERT INTO customers (email, name, phone)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	return r.db.QueryRow(ctx, query, c.Email, c.Name, c.Phone).Scan(&c.ID, &c.CreatedAt)
}

// FindByEmail returns the customer for a contact email.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	query := `
        SELECT id, email, name, phone, created_at
        FROM customers
        WHERE email = $1
    `
	var c model.Customer
	err := r.db.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.Email, &c.Name, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID returns a customer by id.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `
        SELECT id, email, name, phone, created_at
        FROM customers
        WHERE id = $1
    `
	var c model.Customer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Email, &c.Name, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
