package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itsDongki/quicknotes/internal/logger"
)

type ctxKey int

const subjectKey ctxKey = iota

// Subject returns the authenticated owner id stored by Auth, or "".
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

// Auth verifies the bearer token and stores its subject in the request
// context. Requests without a valid token are rejected.
func Auth(secret []byte, loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			var claims jwt.RegisteredClaims
			tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid || claims.Subject == "" {
				loggerClient.Debug("rejected token", logger.Error(err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
