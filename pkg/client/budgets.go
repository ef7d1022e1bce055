package client

import (
	"context"
	"fmt"
	"net/url"
)

// BudgetService manages budget policies and their assignment to
// resources. Policy CRUD needs a server configured with account
// credentials; assignment and coverage always work.
type BudgetService struct {
	client *Client
}

func budgetPolicyPath(id string) string {
	return fmt.Sprintf("/api/v1/budget-policies/%s", url.PathEscape(id))
}

// ListPolicies returns every budget policy in the account
func (s *BudgetService) ListPolicies(ctx context.Context) ([]BudgetPolicy, error) {
	var policies []BudgetPolicy
	if err := s.client.doRequest(ctx, "GET", "/api/v1/budget-policies", nil, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// GetPolicy returns one budget policy
func (s *BudgetService) GetPolicy(ctx context.Context, id string) (*BudgetPolicy, error) {
	var policy BudgetPolicy
	if err := s.client.doRequest(ctx, "GET", budgetPolicyPath(id), nil, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// CreatePolicy registers a new budget policy
func (s *BudgetService) CreatePolicy(ctx context.Context, policy BudgetPolicy) (*BudgetPolicy, error) {
	var created BudgetPolicy
	if err := s.client.doRequest(ctx, "POST", "/api/v1/budget-policies", policy, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePolicy replaces a budget policy's settings
func (s *BudgetService) UpdatePolicy(ctx context.Context, id string, policy BudgetPolicy) (*BudgetPolicy, error) {
	var updated BudgetPolicy
	if err := s.client.doRequest(ctx, "PATCH", budgetPolicyPath(id), policy, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePolicy removes a budget policy
func (s *BudgetService) DeletePolicy(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", budgetPolicyPath(id), nil, nil)
}

// Apply assigns a budget policy to one resource by tagging it
func (s *BudgetService) Apply(ctx context.Context, policyID string, ref ResourceRef) (*TagsResult, error) {
	body := struct {
		Resource ResourceRef `json:"resource"`
	}{Resource: ref}

	var result TagsResult
	if err := s.client.doRequest(ctx, "POST", budgetPolicyPath(policyID)+"/apply", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PolicyResources returns every resource assigned to the policy
func (s *BudgetService) PolicyResources(ctx context.Context, policyID string) ([]Resource, error) {
	var resources []Resource
	if err := s.client.doRequest(ctx, "GET", budgetPolicyPath(policyID)+"/resources", nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// Coverage reports budget policy assignment across the workspace
func (s *BudgetService) Coverage(ctx context.Context) (*BudgetCoverageReport, error) {
	var report BudgetCoverageReport
	if err := s.client.doRequest(ctx, "GET", "/api/v1/budget/coverage", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
