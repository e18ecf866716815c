package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/identity"
	"github.com/itsDongki/quicknotes/internal/logger"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Token implements the password grant. The stand-in accepts any non-empty
// credentials and derives a stable owner id from the username, so the same
// username always sees the same notes.
func Token(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "password" {
			writeError(w, http.StatusBadRequest, "", "unsupported grant_type")
			return
		}

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "", "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "", "username and password are required")
			return
		}

		now := d.Now()
		expires := now.Add(d.TokenTTL)
		owner := identity.OwnerID(req.Username)

		claims := jwt.RegisteredClaims{
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.JWTSecret)
		if err != nil {
			d.Logger.Error("failed to sign token", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "", "failed to issue token")
			return
		}

		d.Logger.Info("issued token",
			logger.String("username", req.Username),
			logger.String("owner", owner))

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: signed,
			TokenType:   "bearer",
			ExpiresIn:   int64(d.TokenTTL.Seconds()),
			ExpiresAt:   expires.Unix(),
		})
	}
}
