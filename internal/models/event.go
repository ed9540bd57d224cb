package models

import "time"

// Event represents an entry in a user's activity feed.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"` // e.g., "expense.created", "expense.deleted"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
