package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lakespend/lakespend/internal/api/dto"
	"github.com/lakespend/lakespend/internal/budget"
	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/utils"
	"github.com/lakespend/lakespend/internal/platform/databricks"
)

// BudgetHandler handles budget policy HTTP requests
type BudgetHandler struct {
	budgets *budget.Service
	logger  *logger.Logger
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(svc *budget.Service, log *logger.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgets: svc,
		logger:  log,
	}
}

func toPolicyResponse(p *databricks.BudgetPolicy) dto.BudgetPolicyResponse {
	return dto.BudgetPolicyResponse{
		PolicyID:         p.PolicyID,
		Name:             p.Name,
		DisplayName:      p.DisplayName,
		MaxMonthlyBudget: p.MaxMonthlyBudget,
		AlertThresholds:  p.AlertThresholds,
	}
}

func fromPolicyRequest(req *dto.BudgetPolicyRequest) *databricks.BudgetPolicy {
	return &databricks.BudgetPolicy{
		Name:             req.Name,
		DisplayName:      req.DisplayName,
		MaxMonthlyBudget: req.MaxMonthlyBudget,
		AlertThresholds:  req.AlertThresholds,
	}
}

// ListPolicies handles GET /api/v1/budget-policies
// @Summary List budget policies
// @Tags Budgets
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies [get]
func (h *BudgetHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.budgets.ListPolicies(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]dto.BudgetPolicyResponse, 0, len(policies))
	for i := range policies {
		out = append(out, toPolicyResponse(&policies[i]))
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}

// GetPolicy handles GET /api/v1/budget-policies/{id}
// @Summary Get one budget policy
// @Tags Budgets
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies/{id} [get]
func (h *BudgetHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.budgets.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toPolicyResponse(policy))
}

// CreatePolicy handles POST /api/v1/budget-policies
// @Summary Create a budget policy
// @Tags Budgets
// @Accept json
// @Produce json
// @Param body body dto.BudgetPolicyRequest true "Budget policy"
// @Success 201 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies [post]
func (h *BudgetHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetPolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.budgets.CreatePolicy(r.Context(), fromPolicyRequest(&req))
	if err != nil {
		h.logger.ErrorWithErr(err, "budget policy creation failed")
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, toPolicyResponse(created))
}

// UpdatePolicy handles PATCH /api/v1/budget-policies/{id}
// @Summary Update a budget policy
// @Tags Budgets
// @Accept json
// @Produce json
// @Param body body dto.BudgetPolicyRequest true "Budget policy"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies/{id} [patch]
func (h *BudgetHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.BudgetPolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.budgets.UpdatePolicy(r.Context(), chi.URLParam(r, "id"), fromPolicyRequest(&req))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toPolicyResponse(updated))
}

// DeletePolicy handles DELETE /api/v1/budget-policies/{id}
// @Summary Delete a budget policy
// @Tags Budgets
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies/{id} [delete]
func (h *BudgetHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.budgets.DeletePolicy(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]string{"policy_id": id})
}

// ApplyPolicy handles POST /api/v1/budget-policies/{id}/apply
// @Summary Assign a budget policy to one resource
// @Tags Budgets
// @Accept json
// @Produce json
// @Param body body dto.ApplyBudgetPolicyRequest true "Target resource"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies/{id}/apply [post]
func (h *BudgetHandler) ApplyPolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyBudgetPolicyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ref := resource.Ref{Type: resource.Type(req.Resource.Type), ID: req.Resource.ID}
	tags, err := h.budgets.Apply(r.Context(), ref, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.ErrorWithErr(err, "budget policy apply failed")
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.TagsResponse{
		Type: string(ref.Type),
		ID:   ref.ID,
		Tags: tags,
	})
}

// PolicyResources handles GET /api/v1/budget-policies/{id}/resources
// @Summary List resources assigned to a budget policy
// @Tags Budgets
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget-policies/{id}/resources [get]
func (h *BudgetHandler) PolicyResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.budgets.ResourcesWithPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, resources)
}

// Coverage handles GET /api/v1/budget/coverage
// @Summary Report budget policy coverage across the workspace
// @Tags Budgets
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/budget/coverage [get]
func (h *BudgetHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	report, err := h.budgets.Coverage(r.Context())
	if err != nil {
		h.logger.ErrorWithErr(err, "budget coverage report failed")
		respondError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, report)
}
