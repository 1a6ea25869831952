package model

import "time"

// CustomerProfile carries account and loan state for a customer. The triage
// service only reads it; rows are populated by the upstream loan system.
type CustomerProfile struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	AccountStatus  string     `json:"account_status"`
	AccountAgeDays *int       `json:"account_age_days"`
	TotalMessages  int        `json:"total_messages"`
	LoanStatus     *string    `json:"loan_status"`
	LoanAmount     *float64   `json:"loan_amount"`
	RiskScore      *int       `json:"risk_score"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}
