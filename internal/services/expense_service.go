package services

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
	"github.com/spendtrack/spendtrack-be/internal/models"
)

// ExpenseInput carries client-supplied expense fields. Pointer fields
// distinguish "absent" from zero values so the same structure serves both
// create (all of amount/category/date required) and partial update (any
// subset). Owner and id are not part of the input and can never be set.
type ExpenseInput struct {
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
	Date     *string  `json:"date"`
	Note     *string  `json:"note"`
}

// ExpenseServiceProvider defines the interface for expense services.
type ExpenseServiceProvider interface {
	List(requesterID string) ([]models.Expense, error)
	Get(requesterID, expenseID string) (models.Expense, error)
	Create(requesterID string, input ExpenseInput) (models.Expense, error)
	Update(requesterID, expenseID string, input ExpenseInput) (models.Expense, error)
	Delete(requesterID, expenseID string) error
	Summary(requesterID string) (models.ExpenseSummary, error)
}

// ExpenseService provides business logic for expense management. Every
// operation is scoped to the requesting owner.
type ExpenseService struct {
	db     *sql.DB
	events EventServiceProvider
	feed   ActivityNotifier
}

// ActivityNotifier pushes an activity event to a user's connected clients.
type ActivityNotifier interface {
	Notify(userID string, event models.Event)
}

// NewExpenseService creates a new ExpenseService. events and feed may be nil;
// activity recording is best-effort and never fails an operation.
func NewExpenseService(db *sql.DB, events EventServiceProvider, feed ActivityNotifier) *ExpenseService {
	return &ExpenseService{db: db, events: events, feed: feed}
}

// List returns the requester's expenses, newest date first; expenses sharing
// a date are ordered by most recently created.
func (s *ExpenseService) List(requesterID string) ([]models.Expense, error) {
	rows, err := s.db.Query(
		"SELECT id, owner_id, amount, category, date, note, created_at FROM expenses WHERE owner_id = ? ORDER BY date DESC, created_at DESC, rowid DESC",
		requesterID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Error fetching expenses", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Date, &e.Note, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "Error fetching expenses", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Error fetching expenses", err)
	}
	return expenses, nil
}

// Get fetches a single expense after validating the id format and ownership.
func (s *ExpenseService) Get(requesterID, expenseID string) (models.Expense, error) {
	return s.fetchOwned(requesterID, expenseID, "access")
}

// Create validates the input and persists a new expense owned by the requester.
func (s *ExpenseService) Create(requesterID string, input ExpenseInput) (models.Expense, error) {
	if input.Amount == nil || input.Category == nil || input.Date == nil {
		return models.Expense{}, apperr.New(apperr.Validation, "Please provide amount, category, and date")
	}

	amount, err := validateAmount(*input.Amount)
	if err != nil {
		return models.Expense{}, err
	}
	category, err := validateCategory(*input.Category)
	if err != nil {
		return models.Expense{}, err
	}
	date, err := parseDate(*input.Date)
	if err != nil {
		return models.Expense{}, err
	}

	note := ""
	if input.Note != nil {
		note = strings.TrimSpace(*input.Note)
	}

	expense := models.Expense{
		ID:       uuid.New().String(),
		OwnerID:  requesterID,
		Amount:   amount,
		Category: category,
		Date:     date,
		Note:     note,
	}

	stmt, err := s.db.Prepare("INSERT INTO expenses(id, owner_id, amount, category, date, note, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.Expense{}, apperr.Wrap(apperr.Storage, "Error creating expense", err)
	}
	defer stmt.Close()

	expense.CreatedAt = time.Now().UTC()
	if _, err = stmt.Exec(expense.ID, expense.OwnerID, expense.Amount, expense.Category, expense.Date, expense.Note, expense.CreatedAt); err != nil {
		return models.Expense{}, apperr.Wrap(apperr.Storage, "Error creating expense", err)
	}

	s.recordActivity(requesterID, "expense.created", fmt.Sprintf("Added %.2f for %s", expense.Amount, expense.Category))
	return expense, nil
}

// Update applies the provided fields to an owned expense. Each provided
// field is validated with the create rules; absent fields are left unchanged.
func (s *ExpenseService) Update(requesterID, expenseID string, input ExpenseInput) (models.Expense, error) {
	expense, err := s.fetchOwned(requesterID, expenseID, "modify")
	if err != nil {
		return models.Expense{}, err
	}

	if input.Amount != nil {
		amount, err := validateAmount(*input.Amount)
		if err != nil {
			return models.Expense{}, err
		}
		expense.Amount = amount
	}
	if input.Category != nil {
		category, err := validateCategory(*input.Category)
		if err != nil {
			return models.Expense{}, err
		}
		expense.Category = category
	}
	if input.Date != nil {
		date, err := parseDate(*input.Date)
		if err != nil {
			return models.Expense{}, err
		}
		expense.Date = date
	}
	if input.Note != nil {
		expense.Note = strings.TrimSpace(*input.Note)
	}

	// Scoping the write by owner as well as id closes the window between the
	// ownership check above and the mutation.
	_, err = s.db.Exec(
		"UPDATE expenses SET amount = ?, category = ?, date = ?, note = ? WHERE id = ? AND owner_id = ?",
		expense.Amount, expense.Category, expense.Date, expense.Note, expense.ID, requesterID,
	)
	if err != nil {
		return models.Expense{}, apperr.Wrap(apperr.Storage, "Error updating expense", err)
	}

	s.recordActivity(requesterID, "expense.updated", fmt.Sprintf("Updated %s expense", expense.Category))
	return expense, nil
}

// Delete removes an owned expense.
func (s *ExpenseService) Delete(requesterID, expenseID string) error {
	expense, err := s.fetchOwned(requesterID, expenseID, "delete")
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM expenses WHERE id = ? AND owner_id = ?", expenseID, requesterID); err != nil {
		return apperr.Wrap(apperr.Storage, "Error deleting expense", err)
	}

	s.recordActivity(requesterID, "expense.deleted", fmt.Sprintf("Deleted %s expense", expense.Category))
	return nil
}

// Summary aggregates the requester's spending by category, largest first.
func (s *ExpenseService) Summary(requesterID string) (models.ExpenseSummary, error) {
	rows, err := s.db.Query(
		"SELECT category, SUM(amount), COUNT(1) FROM expenses WHERE owner_id = ? GROUP BY category",
		requesterID,
	)
	if err != nil {
		return models.ExpenseSummary{}, apperr.Wrap(apperr.Storage, "Error fetching summary", err)
	}
	defer rows.Close()

	summary := models.ExpenseSummary{Categories: []models.CategorySummary{}}
	for rows.Next() {
		var c models.CategorySummary
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return models.ExpenseSummary{}, apperr.Wrap(apperr.Storage, "Error fetching summary", err)
		}
		summary.Categories = append(summary.Categories, c)
		summary.Total += c.Total
		summary.Count += c.Count
	}
	if err := rows.Err(); err != nil {
		return models.ExpenseSummary{}, apperr.Wrap(apperr.Storage, "Error fetching summary", err)
	}

	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Total > summary.Categories[j].Total
	})
	return summary, nil
}

// fetchOwned validates the id format, loads the expense and enforces
// ownership. The id format is checked before any lookup.
func (s *ExpenseService) fetchOwned(requesterID, expenseID, action string) (models.Expense, error) {
	if _, err := uuid.Parse(expenseID); err != nil {
		return models.Expense{}, apperr.Wrap(apperr.InvalidID, "Invalid expense ID", err)
	}

	var e models.Expense
	row := s.db.QueryRow("SELECT id, owner_id, amount, category, date, note, created_at FROM expenses WHERE id = ?", expenseID)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Date, &e.Note, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Expense{}, apperr.New(apperr.NotFound, "Expense not found")
		}
		return models.Expense{}, apperr.Wrap(apperr.Storage, "Error fetching expense", err)
	}

	if e.OwnerID != requesterID {
		return models.Expense{}, apperr.New(apperr.Forbidden, "Not authorized to "+action+" this expense")
	}
	return e, nil
}

// recordActivity writes an event and pushes it to the owner's connected
// clients. Failures are logged and never surfaced to the caller.
func (s *ExpenseService) recordActivity(userID, eventType, message string) {
	if s.events == nil {
		return
	}
	event, err := s.events.Record(userID, eventType, message)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", eventType).Msg("Failed to record activity event")
		return
	}
	if s.feed != nil {
		s.feed.Notify(userID, event)
	}
}

func validateAmount(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, apperr.New(apperr.Validation, "Amount must be a valid number")
	}
	if amount <= 0 {
		return 0, apperr.New(apperr.Validation, "Amount must be greater than 0")
	}
	return amount, nil
}

func validateCategory(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return "", apperr.New(apperr.Validation, "Category cannot be empty")
	}
	return trimmed, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.New(apperr.Validation, "Please provide a valid date")
}
