// Package session supplies the stable owner identity that scopes every note
// operation. Identity comes from the remote service's password grant; the
// owner identifier is the subject claim of the issued token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itsDongki/quicknotes/internal/remote"
)

// ErrNoSession indicates no valid cached session; the caller should run the
// sign-in flow.
var ErrNoSession = errors.New("no valid session (sign-in required)")

// Session is an authenticated identity.
type Session struct {
	Token     string    `json:"access_token"`
	Owner     string    `json:"owner"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session can still be used.
func (s Session) Valid() bool {
	return s.Token != "" && s.Owner != "" && time.Now().Before(s.ExpiresAt)
}

// SignIn authenticates against the remote service and derives the owner
// identifier from the token's subject claim.
func SignIn(ctx context.Context, client *remote.Client, username, password string) (Session, error) {
	tok, err := client.SignIn(ctx, username, password)
	if err != nil {
		return Session{}, err
	}

	owner, err := OwnerFromToken(tok.AccessToken)
	if err != nil {
		return Session{}, fmt.Errorf("extract owner from token: %w", err)
	}

	expires := time.Unix(tok.ExpiresAt, 0)
	if tok.ExpiresAt == 0 {
		expires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	return Session{
		Token:     tok.AccessToken,
		Owner:     owner,
		Username:  username,
		ExpiresAt: expires,
	}, nil
}

// OwnerFromToken extracts the subject claim without verifying the signature.
// The remote service is the authority on token validity; the client only
// needs the stable identifier inside.
func OwnerFromToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject claim")
	}
	return claims.Subject, nil
}

// Cache persists a session across runs in a mode-0600 file.
type Cache struct {
	path string
}

// NewCache builds a cache at path. Empty path selects
// <user config dir>/quicknotes/session.json.
func NewCache(path string) (*Cache, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "quicknotes", "session.json")
	}
	return &Cache{path: path}, nil
}

// Load returns the cached session, or ErrNoSession when absent or expired.
func (c *Cache) Load() (Session, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return Session{}, ErrNoSession
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, ErrNoSession
	}
	if !s.Valid() {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Save writes the session to disk.
func (c *Cache) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0o600)
}

// Clear removes the cached session.
func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
