package budget

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/platform/databricks"
)

// PolicyTagKey is the tag a resource carries to opt into a budget policy
const PolicyTagKey = "budget_policy_id"

// defaultAlertThresholds are applied when a policy is created without any
var defaultAlertThresholds = []float64{0.5, 0.75, 0.9}

// PolicyStore manages budget policies in the account console
type PolicyStore interface {
	List(ctx context.Context) ([]databricks.BudgetPolicy, error)
	Get(ctx context.Context, id string) (*databricks.BudgetPolicy, error)
	Create(ctx context.Context, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error)
	Update(ctx context.Context, id string, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error)
	Delete(ctx context.Context, id string) error
}

// Tagger covers the tag operations budget assignment is built on
type Tagger interface {
	UpdateTags(ctx context.Context, ref resource.Ref, delta resource.Delta) (map[string]string, error)
	FindByTag(ctx context.Context, key string, value *string) ([]resource.Resource, error)
	ListAll(ctx context.Context, t resource.Type) ([]resource.Resource, error)
}

// Service manages budget policies and their assignment to workspace
// resources. Assignment is plain tagging: a resource belongs to a policy
// iff its budget_policy_id tag names that policy. Policy CRUD needs
// account credentials; the tag-based flows work without them.
type Service struct {
	policies PolicyStore // nil when account credentials are not configured
	tags     Tagger
	logger   *logger.Logger
}

// NewService creates a budget service. A nil policy store disables policy
// management but keeps assignment and coverage reporting available.
func NewService(policies PolicyStore, tagger Tagger, log *logger.Logger) *Service {
	return &Service{
		policies: policies,
		tags:     tagger,
		logger:   log,
	}
}

func (s *Service) store() (PolicyStore, error) {
	if s.policies == nil {
		return nil, errors.Validation("budget policy management requires account credentials (DATABRICKS_ACCOUNT_ID)", nil)
	}
	return s.policies, nil
}

// ListPolicies returns every budget policy in the account
func (s *Service) ListPolicies(ctx context.Context) ([]databricks.BudgetPolicy, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// GetPolicy returns one budget policy
func (s *Service) GetPolicy(ctx context.Context, id string) (*databricks.BudgetPolicy, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// CreatePolicy registers a new budget policy. Policies created without
// alert thresholds get the 50/75/90 percent defaults.
func (s *Service) CreatePolicy(ctx context.Context, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	if policy.Name == "" {
		return nil, errors.Validation("budget policy name is required", nil)
	}
	if policy.MaxMonthlyBudget <= 0 {
		return nil, errors.Validation("budget policy needs a positive monthly budget", nil)
	}
	if len(policy.AlertThresholds) == 0 {
		policy.AlertThresholds = append([]float64(nil), defaultAlertThresholds...)
	}

	created, err := store.Create(ctx, policy)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"policy_id": created.PolicyID,
		"name":      created.Name,
	}).Info("budget policy created")
	return created, nil
}

// UpdatePolicy replaces a policy's settings
func (s *Service) UpdatePolicy(ctx context.Context, id string, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Update(ctx, id, policy)
}

// DeletePolicy removes a budget policy. Resources still tagged with it
// keep the tag and show up as an unknown policy in the coverage report.
func (s *Service) DeletePolicy(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{"policy_id": id}).Info("budget policy deleted")
	return nil
}

// Apply assigns a budget policy to one resource by writing its
// budget_policy_id tag. When the policy store is available, the policy
// must exist.
func (s *Service) Apply(ctx context.Context, ref resource.Ref, policyID string) (map[string]string, error) {
	if policyID == "" {
		return nil, errors.Validation("budget policy id is required", nil)
	}
	if s.policies != nil {
		if _, err := s.policies.Get(ctx, policyID); err != nil {
			return nil, err
		}
	}

	tags, err := s.tags.UpdateTags(ctx, ref, resource.Delta{
		Set: map[string]string{PolicyTagKey: policyID},
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"resource":  ref.String(),
		"policy_id": policyID,
	}).Info("budget policy applied")
	return tags, nil
}

// ResourcesWithPolicy returns every resource tagged with the policy
func (s *Service) ResourcesWithPolicy(ctx context.Context, policyID string) ([]resource.Resource, error) {
	if policyID == "" {
		return nil, errors.Validation("budget policy id is required", nil)
	}
	return s.tags.FindByTag(ctx, PolicyTagKey, &policyID)
}

// TaggedResource identifies one resource inside a policy usage entry
type TaggedResource struct {
	Type resource.Type `json:"type"`
	ID   string        `json:"id"`
	Name string        `json:"name,omitempty"`
}

// PolicyUsage lists the resources assigned to one budget policy. Known
// reports false for tag values that name no existing policy.
type PolicyUsage struct {
	PolicyID   string           `json:"policy_id"`
	PolicyName string           `json:"policy_name,omitempty"`
	Known      bool             `json:"known"`
	Resources  []TaggedResource `json:"resources"`
}

// CoverageReport summarizes budget policy assignment across the workspace
type CoverageReport struct {
	GeneratedAt      time.Time     `json:"generated_at"`
	TotalResources   int           `json:"total_resources"`
	CoveredResources int           `json:"covered_resources"`
	CoverageRate     float64       `json:"coverage_rate"`
	Policies         []PolicyUsage `json:"policies"`
}

// Coverage scans every resource across all supported types and reports
// which budget policy, if any, each one is assigned to. Without account
// credentials the report still runs; policies are then known only by the
// tag values found on resources.
func (s *Service) Coverage(ctx context.Context) (*CoverageReport, error) {
	report := &CoverageReport{
		GeneratedAt: time.Now().UTC(),
		Policies:    make([]PolicyUsage, 0),
	}

	usage := make(map[string]*PolicyUsage)
	if s.policies != nil {
		policies, err := s.policies.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range policies {
			usage[p.PolicyID] = &PolicyUsage{
				PolicyID:   p.PolicyID,
				PolicyName: p.Name,
				Known:      true,
				Resources:  make([]TaggedResource, 0),
			}
		}
	}

	for _, t := range resource.Types() {
		resources, err := s.tags.ListAll(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, res := range resources {
			report.TotalResources++
			policyID := res.Tags[PolicyTagKey]
			if policyID == "" {
				continue
			}
			report.CoveredResources++

			u, ok := usage[policyID]
			if !ok {
				u = &PolicyUsage{PolicyID: policyID, Resources: make([]TaggedResource, 0)}
				usage[policyID] = u
			}
			u.Resources = append(u.Resources, TaggedResource{Type: res.Type, ID: res.ID, Name: res.Name})
		}
	}

	for _, u := range usage {
		report.Policies = append(report.Policies, *u)
	}
	sort.Slice(report.Policies, func(i, j int) bool {
		return report.Policies[i].PolicyID < report.Policies[j].PolicyID
	})

	if report.TotalResources > 0 {
		rate := float64(report.CoveredResources) / float64(report.TotalResources)
		report.CoverageRate = math.Round(rate*10000) / 10000
	}

	s.logger.WithFields(map[string]interface{}{
		"total":   report.TotalResources,
		"covered": report.CoveredResources,
		"rate":    report.CoverageRate,
	}).Info("budget coverage report generated")

	return report, nil
}
