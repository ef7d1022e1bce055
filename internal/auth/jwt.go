package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is a minted API access token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims carried by LakeSpend API tokens
type Claims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// ErrInvalidAPIKey is returned when the presented API key does not match
var ErrInvalidAPIKey = errors.New("invalid api key")

// Exchange validates the presented API key against the configured one and
// mints a short-lived HS256 access token
func Exchange(presented, configured, secret string, ttl time.Duration) (Token, error) {
	if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
		return Token{}, ErrInvalidAPIKey
	}
	return Mint("api-key", secret, ttl)
}

// Mint creates a signed access token for a subject
func Mint(subject, secret string, ttl time.Duration) (Token, error) {
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// ParseClaims verifies a token and returns its claims
func ParseClaims(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
