package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lakespend/lakespend/internal/api/dto"
	"github.com/lakespend/lakespend/internal/compliance"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/utils"
	"github.com/lakespend/lakespend/internal/store"
)

// ComplianceHandler handles compliance HTTP requests
type ComplianceHandler struct {
	compliance *compliance.Service
	store      *store.Store
	logger     *logger.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(svc *compliance.Service, st *store.Store, log *logger.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		compliance: svc,
		store:      st,
		logger:     log,
	}
}

// GetReport handles GET /api/v1/compliance/report
// @Summary Run an on-demand compliance report
// @Tags Compliance
// @Produce json
// @Param required_tags query string false "Comma-separated required tag keys"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/compliance/report [get]
func (h *ComplianceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	var required []string
	if raw := r.URL.Query().Get("required_tags"); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				required = append(required, key)
			}
		}
	}
	h.report(w, r, required)
}

// PostReport handles POST /api/v1/compliance/report
// @Summary Run an on-demand compliance report
// @Tags Compliance
// @Accept json
// @Produce json
// @Param body body dto.ComplianceReportRequest true "Report request"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/compliance/report [post]
func (h *ComplianceHandler) PostReport(w http.ResponseWriter, r *http.Request) {
	var req dto.ComplianceReportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.report(w, r, req.RequiredTags)
}

func (h *ComplianceHandler) report(w http.ResponseWriter, r *http.Request, required []string) {
	report, err := h.compliance.Report(r.Context(), required)
	if err != nil {
		h.logger.ErrorWithErr(err, "compliance report failed")
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, report)
}

// ListScans handles GET /api/v1/compliance/scans
// @Summary List recent scheduled scans
// @Tags Compliance
// @Produce json
// @Param limit query int false "Max rows, default 20"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/compliance/scans [get]
func (h *ComplianceHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	scans, err := h.store.ListScans(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]dto.ScanSummaryResponse, 0, len(scans))
	for _, s := range scans {
		out = append(out, dto.ScanSummaryResponse{
			ID:                 s.ID,
			StartedAt:          s.StartedAt,
			FinishedAt:         s.FinishedAt,
			TotalResources:     s.TotalResources,
			CompliantResources: s.CompliantResources,
			ComplianceRate:     s.ComplianceRate,
		})
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}

// GetScan handles GET /api/v1/compliance/scans/{id}
// @Summary Fetch one scan with its full report
// @Tags Compliance
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/compliance/scans/{id} [get]
func (h *ComplianceHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetScan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	var report compliance.Report
	if err := json.Unmarshal(rec.Report, &report); err != nil {
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"id":          rec.ID,
		"started_at":  rec.StartedAt,
		"finished_at": rec.FinishedAt,
		"report":      report,
	})
}
