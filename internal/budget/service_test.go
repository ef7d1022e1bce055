package budget

import (
	"context"
	"reflect"
	"testing"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/platform/databricks"
	"github.com/lakespend/lakespend/internal/tags"
	"github.com/lakespend/lakespend/internal/testutil"
)

// fakePolicyStore is an in-memory PolicyStore
type fakePolicyStore struct {
	policies map[string]*databricks.BudgetPolicy
	nextID   int
}

func newFakePolicyStore(policies ...*databricks.BudgetPolicy) *fakePolicyStore {
	f := &fakePolicyStore{policies: make(map[string]*databricks.BudgetPolicy)}
	for _, p := range policies {
		f.policies[p.PolicyID] = p
	}
	return f
}

func (f *fakePolicyStore) List(ctx context.Context) ([]databricks.BudgetPolicy, error) {
	out := make([]databricks.BudgetPolicy, 0, len(f.policies))
	for _, p := range f.policies {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePolicyStore) Get(ctx context.Context, id string) (*databricks.BudgetPolicy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, errors.NotFound("budget policy")
	}
	copied := *p
	return &copied, nil
}

func (f *fakePolicyStore) Create(ctx context.Context, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error) {
	f.nextID++
	created := *policy
	created.PolicyID = "bp-" + string(rune('0'+f.nextID))
	f.policies[created.PolicyID] = &created
	return &created, nil
}

func (f *fakePolicyStore) Update(ctx context.Context, id string, policy *databricks.BudgetPolicy) (*databricks.BudgetPolicy, error) {
	if _, ok := f.policies[id]; !ok {
		return nil, errors.NotFound("budget policy")
	}
	updated := *policy
	updated.PolicyID = id
	f.policies[id] = &updated
	return &updated, nil
}

func (f *fakePolicyStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.policies[id]; !ok {
		return errors.NotFound("budget policy")
	}
	delete(f.policies, id)
	return nil
}

func newService(t *testing.T, platform *testutil.FakePlatform, store PolicyStore) *Service {
	t.Helper()
	log := testutil.NewTestLogger()
	return NewService(store, tags.NewService(platform, log), log)
}

func TestApplyWritesPolicyTag(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"env": "dev"}})
	store := newFakePolicyStore(&databricks.BudgetPolicy{PolicyID: "bp-1", Name: "eng"})

	svc := newService(t, platform, store)

	got, err := svc.Apply(context.Background(), resource.Ref{Type: resource.TypeCluster, ID: "c1"}, "bp-1")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got[PolicyTagKey] != "bp-1" || got["env"] != "dev" {
		t.Errorf("tags after apply = %v", got)
	}

	persisted := platform.Fakes[resource.TypeCluster].Resources["c1"].Tags
	if persisted[PolicyTagKey] != "bp-1" {
		t.Errorf("persisted tags = %v, want budget_policy_id written", persisted)
	}
}

func TestApplyRejectsUnknownPolicy(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1"})

	svc := newService(t, platform, newFakePolicyStore())

	_, err := svc.Apply(context.Background(), resource.Ref{Type: resource.TypeCluster, ID: "c1"}, "ghost")
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Fatalf("Apply(ghost) error = %v, want not found", err)
	}
	if calls := platform.Fakes[resource.TypeCluster].WriteCalls; len(calls) != 0 {
		t.Errorf("unexpected tag writes: %v", calls)
	}
}

func TestApplyWithoutStoreSkipsLookup(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeJob, ID: "7"})

	svc := newService(t, platform, nil)

	got, err := svc.Apply(context.Background(), resource.Ref{Type: resource.TypeJob, ID: "7"}, "bp-external")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got[PolicyTagKey] != "bp-external" {
		t.Errorf("tags = %v", got)
	}
}

func TestResourcesWithPolicy(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{PolicyTagKey: "bp-1"}}).
		Add(&resource.Resource{Type: resource.TypeWarehouse, ID: "w1", Tags: map[string]string{PolicyTagKey: "bp-2"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "1", Tags: map[string]string{PolicyTagKey: "bp-1"}})

	svc := newService(t, platform, nil)

	got, err := svc.ResourcesWithPolicy(context.Background(), "bp-1")
	if err != nil {
		t.Fatalf("ResourcesWithPolicy() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %+v, want cluster c1 and job 1", got)
	}

	if _, err := svc.ResourcesWithPolicy(context.Background(), ""); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("empty policy id error = %v, want validation error", err)
	}
}

func TestCoverageReport(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{PolicyTagKey: "bp-1"}}).
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c2", Tags: map[string]string{"env": "dev"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "1", Tags: map[string]string{PolicyTagKey: "bp-gone"}}).
		Add(&resource.Resource{Type: resource.TypeWarehouse, ID: "w1"})
	store := newFakePolicyStore(
		&databricks.BudgetPolicy{PolicyID: "bp-1", Name: "eng"},
		&databricks.BudgetPolicy{PolicyID: "bp-2", Name: "idle"},
	)

	svc := newService(t, platform, store)

	report, err := svc.Coverage(context.Background())
	if err != nil {
		t.Fatalf("Coverage() error: %v", err)
	}

	if report.TotalResources != 4 || report.CoveredResources != 2 {
		t.Errorf("coverage = %d/%d, want 2/4", report.CoveredResources, report.TotalResources)
	}
	if report.CoverageRate != 0.5 {
		t.Errorf("CoverageRate = %v, want 0.5", report.CoverageRate)
	}

	byID := make(map[string]PolicyUsage)
	for _, u := range report.Policies {
		byID[u.PolicyID] = u
	}

	// Known policy with one resource, known policy with none, and a tag
	// value naming no existing policy
	if u := byID["bp-1"]; !u.Known || u.PolicyName != "eng" || len(u.Resources) != 1 || u.Resources[0].ID != "c1" {
		t.Errorf("bp-1 usage = %+v", u)
	}
	if u := byID["bp-2"]; !u.Known || len(u.Resources) != 0 {
		t.Errorf("bp-2 usage = %+v, want known and unused", u)
	}
	if u := byID["bp-gone"]; u.Known || len(u.Resources) != 1 {
		t.Errorf("bp-gone usage = %+v, want unknown with one resource", u)
	}
}

func TestCoverageWithoutStore(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{PolicyTagKey: "bp-1"}})

	svc := newService(t, platform, nil)

	report, err := svc.Coverage(context.Background())
	if err != nil {
		t.Fatalf("Coverage() error: %v", err)
	}
	if report.CoveredResources != 1 || len(report.Policies) != 1 || report.Policies[0].Known {
		t.Errorf("report = %+v, want one unknown policy", report)
	}
}

func TestPolicyCRUDRequiresStore(t *testing.T) {
	svc := newService(t, testutil.NewFakePlatform(), nil)
	ctx := context.Background()

	if _, err := svc.ListPolicies(ctx); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("ListPolicies error = %v, want validation error", err)
	}
	if _, err := svc.CreatePolicy(ctx, &databricks.BudgetPolicy{Name: "x", MaxMonthlyBudget: 1}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("CreatePolicy error = %v, want validation error", err)
	}
	if err := svc.DeletePolicy(ctx, "bp-1"); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("DeletePolicy error = %v, want validation error", err)
	}
}

func TestCreatePolicyDefaultsAndValidation(t *testing.T) {
	store := newFakePolicyStore()
	svc := newService(t, testutil.NewFakePlatform(), store)
	ctx := context.Background()

	created, err := svc.CreatePolicy(ctx, &databricks.BudgetPolicy{Name: "eng", MaxMonthlyBudget: 250})
	if err != nil {
		t.Fatalf("CreatePolicy() error: %v", err)
	}
	if !reflect.DeepEqual(created.AlertThresholds, []float64{0.5, 0.75, 0.9}) {
		t.Errorf("AlertThresholds = %v, want defaults", created.AlertThresholds)
	}

	if _, err := svc.CreatePolicy(ctx, &databricks.BudgetPolicy{MaxMonthlyBudget: 1}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("nameless policy error = %v, want validation error", err)
	}
	if _, err := svc.CreatePolicy(ctx, &databricks.BudgetPolicy{Name: "eng"}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("zero budget error = %v, want validation error", err)
	}
}
