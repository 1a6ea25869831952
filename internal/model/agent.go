package model

import "time"

// Agent is a support agent account. Claims, unclaims and replies always
// carry an explicit agent identity taken from the agent's token.
type Agent struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
