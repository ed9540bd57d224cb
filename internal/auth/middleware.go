package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/apperr"
)

type contextKey string

const userIDKey = contextKey("userID")

const bearerPrefix = "Bearer "

// UserID extracts the authenticated user id attached by Middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID attaches a user id to the context. Exported for handler tests.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Middleware creates a middleware protecting routes with bearer-token
// authentication. On success the resolved user id is attached to the
// request context; every failure short-circuits with a JSON envelope.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, http.StatusUnauthorized, "Authorization header is missing")
				return
			}

			if !strings.HasPrefix(authHeader, bearerPrefix) {
				reject(w, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
			if tokenStr == "" {
				reject(w, http.StatusUnauthorized, "Token is missing")
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				if apperr.KindOf(err) == apperr.Configuration {
					log.Error().Err(err).Msg("Token verification impossible: signing secret is not configured")
					reject(w, http.StatusInternalServerError, "Server configuration error")
					return
				}
				reject(w, http.StatusUnauthorized, apperr.MessageOf(err))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
