package model

import "time"

// Assignment binds one agent to one message. The unique key on MessageID
// enforces at most one claimant; a re-claim overwrites the row.
type Assignment struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"message_id"`
	AgentID    string    `json:"agent_id"`
	AgentName  string    `json:"agent_name"`
	Status     string    `json:"status"`
	AssignedAt time.Time `json:"assigned_at"`
}
