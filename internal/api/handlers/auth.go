package handlers

import (
	"net/http"
	"time"

	"github.com/lakespend/lakespend/internal/api/dto"
	"github.com/lakespend/lakespend/internal/auth"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/utils"
)

// AuthHandler exchanges API keys for access tokens
type AuthHandler struct {
	apiKey    string
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(apiKey, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		apiKey:    apiKey,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    log,
	}
}

// Token handles POST /api/v1/auth/token
// @Summary Exchange the API key for a short-lived access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.TokenRequest true "API key"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	token, err := auth.Exchange(req.APIKey, h.apiKey, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Warn("token exchange rejected")
		respondError(w, errors.Unauthorized("invalid api key"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	})
}
