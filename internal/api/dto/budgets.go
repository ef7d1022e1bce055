package dto

// BudgetPolicyRequest is the body of POST and PATCH /budget-policies.
// Thresholds are fractions of the monthly budget.
type BudgetPolicyRequest struct {
	Name             string    `json:"name" validate:"required"`
	DisplayName      string    `json:"display_name,omitempty"`
	MaxMonthlyBudget float64   `json:"max_monthly_budget" validate:"required,gt=0"`
	AlertThresholds  []float64 `json:"alert_thresholds,omitempty" validate:"omitempty,dive,gt=0,lte=1"`
}

// ApplyBudgetPolicyRequest is the body of POST /budget-policies/{id}/apply
type ApplyBudgetPolicyRequest struct {
	Resource ResourceRefRequest `json:"resource" validate:"required"`
}

// BudgetPolicyResponse carries one budget policy
type BudgetPolicyResponse struct {
	PolicyID         string    `json:"policy_id"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"display_name,omitempty"`
	MaxMonthlyBudget float64   `json:"max_monthly_budget"`
	AlertThresholds  []float64 `json:"alert_thresholds,omitempty"`
}
