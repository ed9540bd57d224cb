package models

import "time"

// Expense represents a single expense record owned by a user.
type Expense struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategorySummary aggregates spending for one category.
type CategorySummary struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// ExpenseSummary aggregates a user's spending across all categories.
type ExpenseSummary struct {
	Total      float64           `json:"total"`
	Count      int               `json:"count"`
	Categories []CategorySummary `json:"categories"`
}
