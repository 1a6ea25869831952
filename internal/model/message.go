package model

import "time"

const (
	MessageTypeCustomer = "customer"
	MessageTypeAgent    = "agent"
)

// Message is immutable once created. UrgencyScore is only meaningful for
// customer-originated messages and is fixed at creation time.
type Message struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	Content      string    `json:"content"`
	MessageType  string    `json:"message_type"`
	UrgencyScore int       `json:"urgency_score"`
	AgentID      *string   `json:"agent_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardMessage is the denormalized read model for the agent dashboard:
// message joined with customer, profile and assignment data.
type DashboardMessage struct {
	ID                   string     `json:"id"`
	Content              string     `json:"content"`
	MessageType          string     `json:"message_type"`
	UrgencyScore         int        `json:"urgency_score"`
	CreatedAt            time.Time  `json:"created_at"`
	AgentID              *string    `json:"agent_id"`
	CustomerID           string     `json:"customer_id"`
	CustomerEmail        string     `json:"customer_email"`
	CustomerName         string     `json:"customer_name"`
	LoanStatus           *string    `json:"loan_status"`
	AccountStatus        *string    `json:"account_status"`
	CustomerMessageCount int        `json:"customer_message_count"`
	AssignedAgentID      *string    `json:"assigned_agent_id"`
	AssignedAgentName    *string    `json:"assigned_agent_name"`
	AssignmentStatus     *string    `json:"assignment_status"`
	AssignedAt           *time.Time `json:"assigned_at"`
}
