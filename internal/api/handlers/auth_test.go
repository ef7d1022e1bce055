package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/lakespend/lakespend/internal/auth"
	"github.com/lakespend/lakespend/internal/testutil"
)

func TestTokenExchange(t *testing.T) {
	h := NewAuthHandler("secret-key", "jwt-secret", time.Hour, testutil.NewTestLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid key", body: `{"api_key":"secret-key"}`, wantStatus: 200},
		{name: "wrong key", body: `{"api_key":"nope"}`, wantStatus: 401},
		{name: "missing key", body: `{}`, wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, http.HandlerFunc(h.Token), http.MethodPost, "/api/v1/auth/token", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != 200 {
				return
			}

			var data struct {
				AccessToken string `json:"access_token"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("bad data payload: %v", err)
			}
			claims, err := auth.ParseClaims(data.AccessToken, "jwt-secret")
			if err != nil {
				t.Fatalf("minted token does not parse: %v", err)
			}
			if claims.Subject != "api-key" {
				t.Errorf("subject = %q", claims.Subject)
			}
		})
	}
}
