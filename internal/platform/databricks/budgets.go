package databricks

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
)

// BudgetPolicy is an account-level spending policy that resources opt
// into via the budget_policy_id tag
type BudgetPolicy struct {
	PolicyID         string    `json:"policy_id,omitempty"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"display_name,omitempty"`
	MaxMonthlyBudget float64   `json:"max_monthly_budget_per_user"`
	AlertThresholds  []float64 `json:"alert_on_budget_percentage,omitempty"`
	CreatedAt        int64     `json:"created_time,omitempty"`
	UpdatedAt        int64     `json:"updated_time,omitempty"`
}

// BudgetPolicyAPI manages budget policies through the account console.
// All calls share the client's token, limiter and retry behavior.
type BudgetPolicyAPI struct {
	client *Client
}

// BudgetPolicies returns the account-level budget policy API. Policy
// management needs account credentials; workspace-only deployments get a
// validation error here and keep the tag-based budget flows.
func (c *Client) BudgetPolicies() (*BudgetPolicyAPI, error) {
	if c.accountHost == "" || c.accountID == "" {
		return nil, errors.Validation("budget policy management requires account credentials (DATABRICKS_ACCOUNT_HOST and DATABRICKS_ACCOUNT_ID)", nil)
	}
	return &BudgetPolicyAPI{client: c}, nil
}

func (a *BudgetPolicyAPI) basePath() string {
	return "/api/2.1/accounts/" + url.PathEscape(a.client.accountID) + "/budget-policies"
}

func (a *BudgetPolicyAPI) policyPath(id string) string {
	return a.basePath() + "/" + url.PathEscape(id)
}

// List returns every budget policy in the account
func (a *BudgetPolicyAPI) List(ctx context.Context) (out []BudgetPolicy, err error) {
	start := time.Now()
	defer func() { observeAccount("list", start, err) }()

	pageToken := ""
	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var resp struct {
			Policies      []BudgetPolicy `json:"policies"`
			NextPageToken string         `json:"next_page_token"`
		}
		if err = a.client.doAccount(ctx, http.MethodGet, a.basePath(), query, nil, &resp); err != nil {
			return nil, err
		}

		out = append(out, resp.Policies...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

// Get returns one budget policy
func (a *BudgetPolicyAPI) Get(ctx context.Context, id string) (pol *BudgetPolicy, err error) {
	start := time.Now()
	defer func() { observeAccount("get", start, err) }()

	var out BudgetPolicy
	if err = a.client.doAccount(ctx, http.MethodGet, a.policyPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers a new budget policy and returns it with its assigned ID
func (a *BudgetPolicyAPI) Create(ctx context.Context, policy *BudgetPolicy) (created *BudgetPolicy, err error) {
	start := time.Now()
	defer func() { observeAccount("create", start, err) }()

	var out BudgetPolicy
	if err = a.client.doAccount(ctx, http.MethodPost, a.basePath(), nil, policy, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a budget policy's settings
func (a *BudgetPolicyAPI) Update(ctx context.Context, id string, policy *BudgetPolicy) (updated *BudgetPolicy, err error) {
	start := time.Now()
	defer func() { observeAccount("update", start, err) }()

	var out BudgetPolicy
	if err = a.client.doAccount(ctx, http.MethodPatch, a.policyPath(id), nil, policy, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a budget policy. Tags referencing it are left in place.
func (a *BudgetPolicyAPI) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observeAccount("delete", start, err) }()

	return a.client.doAccount(ctx, http.MethodDelete, a.policyPath(id), nil, nil, nil)
}

func observeAccount(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = errors.CodeOf(err)
	}
	metrics.RecordWorkspaceRequest("budget-policy", operation, status, time.Since(start))
}
