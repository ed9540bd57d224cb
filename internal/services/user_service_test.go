package services

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/spendtrack/spendtrack-be/internal/apperr"
	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.Migrate(db), "failed to migrate test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", time.Hour)
}

type UserServiceSuite struct {
	suite.Suite
	db  *sql.DB
	svc *UserService
}

func (s *UserServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewUserService(s.db, newTestTokens())
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) TestRegisterSuccess() {
	result, err := s.svc.Register("Jane Doe", " Jane@Example.COM ", "secret123")
	s.Require().NoError(err)

	s.NotEmpty(result.User.ID)
	s.Equal("Jane Doe", result.User.Name)
	s.Equal("jane@example.com", result.User.Email, "email should be normalized")
	s.NotEmpty(result.Token)
	s.False(result.User.CreatedAt.IsZero())

	// The response never carries a password in any form.
	s.Empty(result.User.PasswordHash)
	encoded, err := json.Marshal(result.User)
	s.Require().NoError(err)
	s.NotContains(string(encoded), "password")
	s.NotContains(string(encoded), "secret123")

	// The stored hash is never the plaintext password.
	var storedHash string
	s.Require().NoError(s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", result.User.ID).Scan(&storedHash))
	s.NotEmpty(storedHash)
	s.NotEqual("secret123", storedHash)
}

func (s *UserServiceSuite) TestRegisterValidationOrder() {
	tests := []struct {
		name     string
		inName   string
		email    string
		password string
		wantMsg  string
	}{
		{"all missing", "", "", "", "Please provide all required fields (name, email, password)"},
		{"missing password", "Jane", "jane@example.com", "", "Please provide all required fields (name, email, password)"},
		{"short name", " J ", "jane@example.com", "secret123", "Name must be at least 2 characters long"},
		{"bad email", "Jane", "not-an-email", "secret123", "Please provide a valid email address"},
		{"email missing tld", "Jane", "jane@example", "secret123", "Please provide a valid email address"},
		{"short password", "Jane", "jane@example.com", "12345", "Password must be at least 6 characters long"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Register(tt.inName, tt.email, tt.password)
			s.Require().Error(err)
			s.Equal(apperr.Validation, apperr.KindOf(err))
			s.Equal(tt.wantMsg, apperr.MessageOf(err))
		})
	}
}

func (s *UserServiceSuite) TestRegisterDuplicateEmailNormalized() {
	_, err := s.svc.Register("Jane", " A@B.com ", "secret123")
	s.Require().NoError(err)

	_, err = s.svc.Register("John", "a@b.com", "other-password")
	s.Require().Error(err)
	s.Equal(apperr.Conflict, apperr.KindOf(err))
	s.Equal("User with this email already exists", apperr.MessageOf(err))
}

func (s *UserServiceSuite) TestLoginSuccess() {
	registered, err := s.svc.Register("Jane", "jane@example.com", "secret123")
	s.Require().NoError(err)

	result, err := s.svc.Login("  JANE@example.com ", "secret123")
	s.Require().NoError(err)
	s.Equal(registered.User.ID, result.User.ID)
	s.NotEmpty(result.Token)
	s.Empty(result.User.PasswordHash)
}

func (s *UserServiceSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := s.svc.Register("Jane", "jane@example.com", "secret123")
	s.Require().NoError(err)

	_, wrongPassword := s.svc.Login("jane@example.com", "wrong-password")
	_, unknownEmail := s.svc.Login("nobody@example.com", "secret123")

	s.Require().Error(wrongPassword)
	s.Require().Error(unknownEmail)
	s.Equal(apperr.InvalidCredentials, apperr.KindOf(wrongPassword))
	s.Equal(apperr.InvalidCredentials, apperr.KindOf(unknownEmail))
	s.Equal(apperr.MessageOf(wrongPassword), apperr.MessageOf(unknownEmail))
	s.Equal("Invalid email or password", apperr.MessageOf(wrongPassword))
}

func (s *UserServiceSuite) TestLoginValidation() {
	_, err := s.svc.Login("", "")
	s.Equal(apperr.Validation, apperr.KindOf(err))
	s.Equal("Please provide both email and password", apperr.MessageOf(err))

	_, err = s.svc.Login("not-an-email", "secret123")
	s.Equal(apperr.Validation, apperr.KindOf(err))
	s.Equal("Please provide a valid email address", apperr.MessageOf(err))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.com "))
	assert.Equal(t, "jane@example.com", NormalizeEmail("jane@example.com"))
}
