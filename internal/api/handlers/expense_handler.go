package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/services"
)

// ExpenseHandler handles HTTP requests for expense management.
type ExpenseHandler struct {
	service services.ExpenseServiceProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(service services.ExpenseServiceProvider) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// List handles the request to get all of the requester's expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	expenses, err := h.service.List(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondList(w, len(expenses), expenses)
}

// Get handles the request to get a single expense by its ID.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	expense, err := h.service.Get(userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, "", expense)
}

// Create handles the request to create a new expense.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	input, ok := decodeExpenseInput(w, r)
	if !ok {
		return
	}

	expense, err := h.service.Create(userID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusCreated, "Expense created successfully", expense)
}

// Update handles the request to update an existing expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	input, ok := decodeExpenseInput(w, r)
	if !ok {
		return
	}

	expense, err := h.service.Update(userID, chi.URLParam(r, "id"), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, "Expense updated successfully", expense)
}

// Delete handles the request to delete an expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.service.Delete(userID, chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, "Expense deleted successfully", map[string]interface{}{})
}

// Summary handles the request for the requester's spending summary.
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	summary, err := h.service.Summary(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, "", summary)
}

// decodeExpenseInput decodes an expense payload, turning JSON type errors
// into field-specific validation messages. Reports whether decoding
// succeeded; on failure the response has already been written.
func decodeExpenseInput(w http.ResponseWriter, r *http.Request) (services.ExpenseInput, bool) {
	var input services.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "amount" {
			respondMessage(w, http.StatusBadRequest, "Amount must be a valid number")
			return services.ExpenseInput{}, false
		}
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return services.ExpenseInput{}, false
	}
	return input, true
}
