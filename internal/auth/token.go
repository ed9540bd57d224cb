package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens. Verification is
// pure computation; no I/O is performed.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. An empty secret is tolerated here
// and reported as a configuration error on first use, so that startup can
// proceed far enough to log the problem.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token embedding the user id, expiring ttl from now.
func (s *TokenService) Issue(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", apperr.New(apperr.Configuration, "Server configuration error")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Configuration, "Server configuration error", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the embedded user id.
// Expired tokens and tokens with bad signatures or payloads fail with
// distinct kinds so callers can choose a message.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	if len(s.secret) == 0 {
		return "", apperr.New(apperr.Configuration, "Server configuration error")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Wrap(apperr.TokenExpired, "Token has expired", err)
		}
		return "", apperr.Wrap(apperr.TokenInvalid, "Invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", apperr.New(apperr.TokenInvalid, "Invalid token")
	}
	return claims.UserID, nil
}
