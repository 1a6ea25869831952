package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triagedesk/internal/model"
)

// ProfileRepository reads customer profiles. Profiles are populated by the
// upstream loan system; the triage service never writes them.
type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByCustomerID returns the profile for a customer, or pgx.ErrNoRows
// when none exists.
func (r *ProfileRepository) FindByCustomerID(ctx context.Context, customerID string) (*model.CustomerProfile, error) {
	query := `
        SELECT id, customer_id, account_status, account_age_days, total_messages,
               loan_status, loan_amount, risk_score, last_activity_at
        FROM customer_profiles
        WHERE customer_id = $1
    `
	var p model.CustomerProfile
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&p.ID,
		&p.CustomerID,
		&p.AccountStatus,
		&p.AccountAgeDays,
		&p.TotalMessages,
		&p.LoanStatus,
		&p.LoanAmount,
		&p.RiskScore,
		&p.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LoanStatus returns the customer's current loan-status label, or "" when
// the customer has no profile or no loan. Scoring treats both the same.
func (r *ProfileRepository) LoanStatus(ctx context.Context, customerID string) (string, error) {
	query := `
        SELECT loan_status
        FROM customer_profiles
        WHERE customer_id = $1
    `
	var status *string
	err := r.db.QueryRow(ctx, query, customerID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if status == nil {
		return "", nil
	}
	return *status, nil
}
