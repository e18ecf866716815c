package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Token is the credential issued by the service's password grant.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`  // seconds
	ExpiresAt   int64  `json:"expires_at"`  // unix seconds
}

// SignIn exchanges credentials for an access token via the password grant.
func (c *Client) SignIn(ctx context.Context, username, password string) (Token, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return Token{}, err
	}

	u := c.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Token{}, decodeError(resp)
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, &Error{Status: resp.StatusCode, Message: "empty access token in response"}
	}
	return tok, nil
}
