package client

import (
	"context"
	"time"
)

// AuthService handles token exchange
type AuthService struct {
	client *Client
}

// Token is a minted access token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login exchanges an API key for an access token and stores it on the
// client for subsequent requests
func (s *AuthService) Login(ctx context.Context, apiKey string) (*Token, error) {
	body := map[string]string{"api_key": apiKey}

	var token Token
	if err := s.client.doRequest(ctx, "POST", "/api/v1/auth/token", body, &token); err != nil {
		return nil, err
	}

	s.client.SetToken(token.AccessToken)
	return &token, nil
}
