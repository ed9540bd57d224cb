package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
	"github.com/stretchr/testify/suite"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

type ExpenseServiceSuite struct {
	suite.Suite
	db     *sql.DB
	svc    *ExpenseService
	userA  string
	userB  string
	events *EventService
}

func (s *ExpenseServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.events = NewEventService(s.db)
	s.svc = NewExpenseService(s.db, s.events, nil)
	s.userA = s.createUser("a@example.com")
	s.userB = s.createUser("b@example.com")
}

func (s *ExpenseServiceSuite) createUser(email string) string {
	id := uuid.New().String()
	_, err := s.db.Exec("INSERT INTO users(id, name, email, password_hash) VALUES(?, ?, ?, ?)", id, "Test User", email, "hash")
	s.Require().NoError(err)
	return id
}

func (s *ExpenseServiceSuite) create(owner string, amount float64, category, date string) string {
	expense, err := s.svc.Create(owner, ExpenseInput{
		Amount:   floatPtr(amount),
		Category: strPtr(category),
		Date:     strPtr(date),
	})
	s.Require().NoError(err)
	return expense.ID
}

func TestExpenseServiceSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceSuite))
}

func (s *ExpenseServiceSuite) TestCreateAndRoundTrip() {
	created, err := s.svc.Create(s.userA, ExpenseInput{
		Amount:   floatPtr(42.50),
		Category: strPtr("  groceries "),
		Date:     strPtr("2024-06-15"),
		Note:     strPtr("  weekly shop "),
	})
	s.Require().NoError(err)

	s.NotEmpty(created.ID)
	s.Equal(s.userA, created.OwnerID)
	s.Equal(42.50, created.Amount)
	s.Equal("groceries", created.Category, "category should be trimmed")
	s.Equal("weekly shop", created.Note, "note should be trimmed")
	s.False(created.CreatedAt.IsZero())

	fetched, err := s.svc.Get(s.userA, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, fetched.ID)
	s.Equal(created.OwnerID, fetched.OwnerID)
	s.Equal(created.Amount, fetched.Amount)
	s.Equal(created.Category, fetched.Category)
	s.Equal(created.Note, fetched.Note)
	s.True(created.Date.Equal(fetched.Date), "date should round-trip")
}

func (s *ExpenseServiceSuite) TestCreateDefaultsNote() {
	expense, err := s.svc.Create(s.userA, ExpenseInput{
		Amount:   floatPtr(1),
		Category: strPtr("misc"),
		Date:     strPtr("2024-01-01"),
	})
	s.Require().NoError(err)
	s.Equal("", expense.Note)
}

func (s *ExpenseServiceSuite) TestCreateValidation() {
	tests := []struct {
		name    string
		input   ExpenseInput
		wantMsg string
	}{
		{"missing everything", ExpenseInput{}, "Please provide amount, category, and date"},
		{"missing date", ExpenseInput{Amount: floatPtr(1), Category: strPtr("x")}, "Please provide amount, category, and date"},
		{"zero amount", ExpenseInput{Amount: floatPtr(0), Category: strPtr("x"), Date: strPtr("2024-01-01")}, "Amount must be greater than 0"},
		{"negative amount", ExpenseInput{Amount: floatPtr(-5), Category: strPtr("x"), Date: strPtr("2024-01-01")}, "Amount must be greater than 0"},
		{"blank category", ExpenseInput{Amount: floatPtr(1), Category: strPtr("   "), Date: strPtr("2024-01-01")}, "Category cannot be empty"},
		{"bad date", ExpenseInput{Amount: floatPtr(1), Category: strPtr("x"), Date: strPtr("not-a-date")}, "Please provide a valid date"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Create(s.userA, tt.input)
			s.Require().Error(err)
			s.Equal(apperr.Validation, apperr.KindOf(err))
			s.Equal(tt.wantMsg, apperr.MessageOf(err))
		})
	}
}

func (s *ExpenseServiceSuite) TestCreateMinimalAmountSucceeds() {
	_, err := s.svc.Create(s.userA, ExpenseInput{
		Amount:   floatPtr(0.01),
		Category: strPtr("x"),
		Date:     strPtr("2024-01-01"),
	})
	s.NoError(err)
}

func (s *ExpenseServiceSuite) TestCreateAcceptsRFC3339Date() {
	expense, err := s.svc.Create(s.userA, ExpenseInput{
		Amount:   floatPtr(3),
		Category: strPtr("x"),
		Date:     strPtr("2024-06-15T13:45:00Z"),
	})
	s.Require().NoError(err)
	s.Equal(time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC), expense.Date.UTC())
}

func (s *ExpenseServiceSuite) TestListOrderedByDateThenCreation() {
	s.create(s.userA, 10, "a", "2024-01-01")
	s.create(s.userA, 20, "b", "2024-03-01")
	s.create(s.userA, 30, "c", "2024-02-01")

	expenses, err := s.svc.List(s.userA)
	s.Require().NoError(err)
	s.Require().Len(expenses, 3)
	s.Equal("b", expenses[0].Category) // 2024-03-01
	s.Equal("c", expenses[1].Category) // 2024-02-01
	s.Equal("a", expenses[2].Category) // 2024-01-01
}

func (s *ExpenseServiceSuite) TestListTieBrokenByMostRecentlyCreated() {
	first := s.create(s.userA, 10, "first", "2024-05-01")
	second := s.create(s.userA, 20, "second", "2024-05-01")

	expenses, err := s.svc.List(s.userA)
	s.Require().NoError(err)
	s.Require().Len(expenses, 2)
	s.Equal(second, expenses[0].ID)
	s.Equal(first, expenses[1].ID)
}

func (s *ExpenseServiceSuite) TestListScopedToOwner() {
	s.create(s.userA, 10, "mine", "2024-01-01")
	s.create(s.userB, 20, "theirs", "2024-01-01")

	expenses, err := s.svc.List(s.userA)
	s.Require().NoError(err)
	s.Require().Len(expenses, 1)
	s.Equal("mine", expenses[0].Category)
}

func (s *ExpenseServiceSuite) TestOwnershipEnforced() {
	id := s.create(s.userA, 10, "private", "2024-01-01")

	_, err := s.svc.Get(s.userB, id)
	s.Equal(apperr.Forbidden, apperr.KindOf(err))

	_, err = s.svc.Update(s.userB, id, ExpenseInput{Amount: floatPtr(99)})
	s.Equal(apperr.Forbidden, apperr.KindOf(err))

	err = s.svc.Delete(s.userB, id)
	s.Equal(apperr.Forbidden, apperr.KindOf(err))

	// The record is untouched afterwards.
	expense, err := s.svc.Get(s.userA, id)
	s.Require().NoError(err)
	s.Equal(10.0, expense.Amount)
}

func (s *ExpenseServiceSuite) TestIDChecks() {
	_, err := s.svc.Get(s.userA, "not-a-uuid")
	s.Equal(apperr.InvalidID, apperr.KindOf(err))
	s.Equal("Invalid expense ID", apperr.MessageOf(err))

	_, err = s.svc.Get(s.userA, uuid.New().String())
	s.Equal(apperr.NotFound, apperr.KindOf(err))
	s.Equal("Expense not found", apperr.MessageOf(err))
}

func (s *ExpenseServiceSuite) TestUpdatePartial() {
	id := s.create(s.userA, 10, "food", "2024-01-01")

	updated, err := s.svc.Update(s.userA, id, ExpenseInput{Amount: floatPtr(12.34)})
	s.Require().NoError(err)
	s.Equal(12.34, updated.Amount)
	s.Equal("food", updated.Category, "unset fields stay unchanged")
	s.Equal(id, updated.ID, "id is immutable")
	s.Equal(s.userA, updated.OwnerID, "owner is immutable")

	updated, err = s.svc.Update(s.userA, id, ExpenseInput{Note: strPtr("  trimmed  ")})
	s.Require().NoError(err)
	s.Equal("trimmed", updated.Note)
	s.Equal(12.34, updated.Amount)
}

func (s *ExpenseServiceSuite) TestUpdateValidatesProvidedFields() {
	id := s.create(s.userA, 10, "food", "2024-01-01")

	_, err := s.svc.Update(s.userA, id, ExpenseInput{Amount: floatPtr(-1)})
	s.Equal(apperr.Validation, apperr.KindOf(err))

	_, err = s.svc.Update(s.userA, id, ExpenseInput{Category: strPtr(" ")})
	s.Equal(apperr.Validation, apperr.KindOf(err))

	_, err = s.svc.Update(s.userA, id, ExpenseInput{Date: strPtr("eleventy")})
	s.Equal(apperr.Validation, apperr.KindOf(err))

	// Nothing was persisted by the failed updates.
	expense, err := s.svc.Get(s.userA, id)
	s.Require().NoError(err)
	s.Equal(10.0, expense.Amount)
	s.Equal("food", expense.Category)
}

func (s *ExpenseServiceSuite) TestDelete() {
	id := s.create(s.userA, 10, "food", "2024-01-01")

	s.Require().NoError(s.svc.Delete(s.userA, id))

	_, err := s.svc.Get(s.userA, id)
	s.Equal(apperr.NotFound, apperr.KindOf(err))

	err = s.svc.Delete(s.userA, id)
	s.Equal(apperr.NotFound, apperr.KindOf(err))
}

func (s *ExpenseServiceSuite) TestSummary() {
	s.create(s.userA, 10, "food", "2024-01-01")
	s.create(s.userA, 5, "food", "2024-01-02")
	s.create(s.userA, 100, "rent", "2024-01-03")
	s.create(s.userB, 999, "other", "2024-01-01")

	summary, err := s.svc.Summary(s.userA)
	s.Require().NoError(err)
	s.Equal(3, summary.Count)
	s.InDelta(115.0, summary.Total, 1e-9)
	s.Require().Len(summary.Categories, 2)
	s.Equal("rent", summary.Categories[0].Category, "categories sorted by total descending")
	s.InDelta(100.0, summary.Categories[0].Total, 1e-9)
	s.Equal("food", summary.Categories[1].Category)
	s.Equal(2, summary.Categories[1].Count)
}

func (s *ExpenseServiceSuite) TestMutationsRecordActivity() {
	id := s.create(s.userA, 10, "food", "2024-01-01")
	_, err := s.svc.Update(s.userA, id, ExpenseInput{Amount: floatPtr(11)})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.userA, id))

	events, err := s.events.RecentForUser(s.userA, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("expense.deleted", events[0].Type)
	s.Equal("expense.updated", events[1].Type)
	s.Equal("expense.created", events[2].Type)
}
