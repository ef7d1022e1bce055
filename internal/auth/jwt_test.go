package auth

import (
	"testing"
	"time"
)

func TestExchangeAndParse(t *testing.T) {
	token, err := Exchange("key-123", "key-123", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}

	claims, err := ParseClaims(token.AccessToken, "secret")
	if err != nil {
		t.Fatalf("ParseClaims() error: %v", err)
	}
	if claims.Subject != "api-key" {
		t.Errorf("subject = %q, want api-key", claims.Subject)
	}
}

func TestExchangeRejectsWrongKey(t *testing.T) {
	if _, err := Exchange("wrong", "key-123", "secret", time.Hour); err != ErrInvalidAPIKey {
		t.Fatalf("error = %v, want ErrInvalidAPIKey", err)
	}
}

func TestParseClaimsRejects(t *testing.T) {
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		secret string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, err := Mint("x", "secret", time.Hour)
				if err != nil {
					t.Fatal(err)
				}
				return tok.AccessToken
			},
			secret: "other",
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				tok, err := Mint("x", "secret", -time.Minute)
				if err != nil {
					t.Fatal(err)
				}
				return tok.AccessToken
			},
			secret: "secret",
		},
		{
			name:   "garbage",
			token:  func(t *testing.T) string { return "not.a.token" },
			secret: "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClaims(tt.token(t), tt.secret); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
