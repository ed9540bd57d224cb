// Package apperr defines the application's error taxonomy. Every failure a
// handler can surface to a client is tagged with a Kind, which determines the
// HTTP status code. Services return these instead of duck-typed errors so
// handlers never have to inspect error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	// Unknown covers errors that were never tagged. Treated as a server fault.
	Unknown Kind = iota
	// Validation covers malformed or missing client input.
	Validation
	// Unauthenticated covers missing or unusable credentials.
	Unauthenticated
	// InvalidCredentials covers a failed login. Deliberately identical for
	// unknown email and wrong password so neither case is distinguishable.
	InvalidCredentials
	// TokenInvalid covers a bearer token whose signature or payload is bad.
	TokenInvalid
	// TokenExpired covers a bearer token past its expiry.
	TokenExpired
	// Forbidden covers an ownership mismatch on an existing record.
	Forbidden
	// NotFound covers a lookup of a nonexistent record.
	NotFound
	// InvalidID covers a malformed record identifier.
	InvalidID
	// Conflict covers a uniqueness violation, e.g. a duplicate email.
	Conflict
	// Configuration covers missing or unusable server configuration.
	Configuration
	// Storage covers failures in the persistence layer.
	Storage
)

// HTTPStatus maps a Kind to the status code sent to the client.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, InvalidID, Conflict:
		return http.StatusBadRequest
	case Unauthenticated, InvalidCredentials, TokenInvalid, TokenExpired:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged application error. Message is safe to show to clients;
// Err carries the underlying cause for logging only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error with a client-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error with a kind and a client-facing message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// MessageOf returns the client-facing message of a tagged error. Untagged
// errors get a generic message so internals are never leaked.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
