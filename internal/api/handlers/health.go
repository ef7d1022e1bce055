package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/utils"
	"github.com/lakespend/lakespend/internal/store"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(st *store.Store, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:  st,
		logger: log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorWithErr(err, "scan store ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "scan store unavailable")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "connected",
	})
}
