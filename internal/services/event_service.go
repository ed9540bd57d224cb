package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
	"github.com/spendtrack/spendtrack-be/internal/models"
)

// EventServiceProvider defines the interface for activity-feed services.
type EventServiceProvider interface {
	Record(userID, eventType, message string) (models.Event, error)
	RecentForUser(userID string, limit int) ([]models.Event, error)
}

// EventService provides business logic for the per-user activity feed.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// Record appends an event to a user's activity feed.
func (s *EventService) Record(userID, eventType, message string) (models.Event, error) {
	event := models.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      eventType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, user_id, type, message, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return models.Event{}, apperr.Wrap(apperr.Storage, "Error recording event", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(event.ID, event.UserID, event.Type, event.Message, event.CreatedAt); err != nil {
		return models.Event{}, apperr.Wrap(apperr.Storage, "Error recording event", err)
	}
	return event, nil
}

// RecentForUser retrieves a user's most recent events, newest first.
func (s *EventService) RecentForUser(userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, type, message, created_at FROM events WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Error fetching events", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Message, &event.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "Error fetching events", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Error fetching events", err)
	}
	return events, nil
}
