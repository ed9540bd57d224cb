package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{InvalidID, http.StatusBadRequest},
		{Conflict, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{InvalidCredentials, http.StatusUnauthorized},
		{TokenInvalid, http.StatusUnauthorized},
		{TokenExpired, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Configuration, http.StatusInternalServerError},
		{Storage, http.StatusInternalServerError},
		{Unknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.kind.HTTPStatus())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := New(NotFound, "Expense not found")
	wrapped := fmt.Errorf("listing: %w", err)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, "Expense not found", MessageOf(wrapped))
}

func TestUntaggedErrorsStayGeneric(t *testing.T) {
	err := errors.New("pq: connection refused")

	assert.Equal(t, Unknown, KindOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
	assert.Equal(t, http.StatusInternalServerError, KindOf(err).HTTPStatus())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Storage, "Failed to save expense", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "Failed to save expense", MessageOf(err))
}
