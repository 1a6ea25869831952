package model

import "time"

// TriageLog is an audit record written by the worker for every change event
// it consumes off the stream.
type TriageLog struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	MessageID string    `json:"message_id"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
