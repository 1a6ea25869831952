package model

// CannedMessage is a static reply template. Read-only; grouped by category
// for the compose dropdown.
type CannedMessage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}
