package services

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
	"github.com/spendtrack/spendtrack-be/internal/auth"
	"github.com/spendtrack/spendtrack-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// emailPattern is the basic local@domain.tld check applied to normalized emails.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthResult is the outcome of a successful registration or login.
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// UserServiceProvider defines the interface for account services.
type UserServiceProvider interface {
	Register(name, email, password string) (AuthResult, error)
	Login(email, password string) (AuthResult, error)
}

// UserService provides business logic for registration and login.
type UserService struct {
	db     *sql.DB
	tokens *auth.TokenService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, tokens *auth.TokenService) *UserService {
	return &UserService{db: db, tokens: tokens}
}

// NormalizeEmail trims and lower-cases an email. The normalized form is the
// uniqueness key for accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, creates the account and issues a token.
// Validation is ordered; the first failing rule wins.
func (s *UserService) Register(name, email, password string) (AuthResult, error) {
	if name == "" || email == "" || password == "" {
		return AuthResult{}, apperr.New(apperr.Validation, "Please provide all required fields (name, email, password)")
	}

	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) < 2 {
		return AuthResult{}, apperr.New(apperr.Validation, "Name must be at least 2 characters long")
	}

	normalizedEmail := NormalizeEmail(email)
	if !emailPattern.MatchString(normalizedEmail) {
		return AuthResult{}, apperr.New(apperr.Validation, "Please provide a valid email address")
	}

	if len(password) < 6 {
		return AuthResult{}, apperr.New(apperr.Validation, "Password must be at least 6 characters long")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", normalizedEmail).Scan(&exists)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error creating user", err)
	}
	if exists > 0 {
		return AuthResult{}, apperr.New(apperr.Conflict, "User with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error creating user", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         trimmedName,
		Email:        normalizedEmail,
		PasswordHash: string(hashedPassword),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, name, email, password_hash) VALUES(?, ?, ?, ?)")
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error creating user", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Name, user.Email, user.PasswordHash); err != nil {
		// The UNIQUE constraint closes the race between the existence check
		// and the insert under concurrent registrations.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return AuthResult{}, apperr.New(apperr.Conflict, "User with this email already exists")
		}
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error creating user", err)
	}

	if err := s.db.QueryRow("SELECT created_at FROM users WHERE id = ?", user.ID).Scan(&user.CreatedAt); err != nil {
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error creating user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	user.PasswordHash = ""
	return AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password yield the identical error so neither case is distinguishable.
func (s *UserService) Login(email, password string) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{}, apperr.New(apperr.Validation, "Please provide both email and password")
	}

	normalizedEmail := NormalizeEmail(email)
	if !emailPattern.MatchString(normalizedEmail) {
		return AuthResult{}, apperr.New(apperr.Validation, "Please provide a valid email address")
	}

	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", normalizedEmail)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return AuthResult{}, apperr.New(apperr.InvalidCredentials, "Invalid email or password")
		}
		return AuthResult{}, apperr.Wrap(apperr.Storage, "Error during login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, apperr.New(apperr.InvalidCredentials, "Invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	user.PasswordHash = ""
	return AuthResult{User: user, Token: token}, nil
}
