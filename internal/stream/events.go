// Package stream is the change-notification surface of the triage service.
// Writes record events in the transactional outbox; the dispatcher publishes
// them to the MQ; Subscriber delivers them on a channel. Poller is the
// documented degraded mode for when the broker is unavailable.
package stream

import "time"

// Routing keys for triage change events on the topic exchange.
const (
	RKMessageCreated     = "message.created"
	RKMessageReplied     = "message.replied"
	RKAssignmentClaimed  = "assignment.claimed"
	RKAssignmentReleased = "assignment.released"
)

// MessageEventPayload announces a new customer message or agent reply.
type MessageEventPayload struct {
	MessageID    string    `json:"message_id"`
	CustomerID   string    `json:"customer_id"`
	MessageType  string    `json:"message_type"`
	UrgencyScore int       `json:"urgency_score"`
	AgentID      *string   `json:"agent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AssignmentEventPayload announces a claim or release. AgentID and
// AgentName are empty on release.
type AssignmentEventPayload struct {
	MessageID  string    `json:"message_id"`
	AgentID    string    `json:"agent_id,omitempty"`
	AgentName  string    `json:"agent_name,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
