package compliance

import (
	"context"
	"reflect"
	"testing"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/policy"
	"github.com/lakespend/lakespend/internal/tags"
	"github.com/lakespend/lakespend/internal/testutil"
)

func newService(t *testing.T, platform *testutil.FakePlatform, pol *policy.Policy) *Service {
	t.Helper()
	log := testutil.NewTestLogger()
	return NewService(tags.NewService(platform, log), pol, log)
}

func TestReportWithExplicitRequiredTags(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"team": "data", "cost-center": "cc1"}}).
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c2", Tags: map[string]string{"team": "data"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "1", Tags: nil})

	svc := newService(t, platform, nil)

	report, err := svc.Report(context.Background(), []string{"team", "cost-center"})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	if report.Summary.TotalResources != 3 {
		t.Errorf("TotalResources = %d, want 3", report.Summary.TotalResources)
	}
	if report.Summary.CompliantResources != 1 {
		t.Errorf("CompliantResources = %d, want 1", report.Summary.CompliantResources)
	}
	if want := 0.3333; report.Summary.ComplianceRate != want {
		t.Errorf("ComplianceRate = %v, want %v", report.Summary.ComplianceRate, want)
	}

	byID := make(map[string]ResourceReport)
	for _, r := range report.Resources {
		byID[string(r.Type)+"/"+r.ID] = r
	}

	if r := byID["cluster/c1"]; !r.Compliant || len(r.MissingTags) != 0 {
		t.Errorf("c1 = %+v, want compliant", r)
	}
	if r := byID["cluster/c2"]; r.Compliant || !reflect.DeepEqual(r.MissingTags, []string{"cost-center"}) {
		t.Errorf("c2 = %+v, want missing cost-center", r)
	}
	if r := byID["job/1"]; r.Compliant || !reflect.DeepEqual(r.MissingTags, []string{"cost-center", "team"}) {
		t.Errorf("job 1 = %+v, want both keys missing sorted", r)
	}

	if s := report.Summary.ByType[resource.TypeCluster]; s.Total != 2 || s.Compliant != 1 {
		t.Errorf("cluster summary = %+v", s)
	}
}

func TestReportUsesPolicyPerType(t *testing.T) {
	pol, err := policy.Parse([]byte(`
requiredTags: [team, cost-center]
overrides:
  job: [team]
`))
	if err != nil {
		t.Fatalf("policy.Parse() error: %v", err)
	}

	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"team": "data"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "1", Tags: map[string]string{"team": "data"}})

	svc := newService(t, platform, pol)

	report, err := svc.Report(context.Background(), nil)
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	byID := make(map[string]ResourceReport)
	for _, r := range report.Resources {
		byID[string(r.Type)+"/"+r.ID] = r
	}

	// Cluster still needs cost-center; the job override only needs team
	if r := byID["cluster/c1"]; r.Compliant {
		t.Errorf("cluster c1 = %+v, want non-compliant", r)
	}
	if r := byID["job/1"]; !r.Compliant {
		t.Errorf("job 1 = %+v, want compliant", r)
	}

	// Each entry names the requirement it was actually checked against,
	// not just the report-level default
	if r := byID["cluster/c1"]; !reflect.DeepEqual(r.RequiredTags, []string{"team", "cost-center"}) {
		t.Errorf("cluster required = %v, want defaults", r.RequiredTags)
	}
	if r := byID["job/1"]; !reflect.DeepEqual(r.RequiredTags, []string{"team"}) {
		t.Errorf("job required = %v, want override [team]", r.RequiredTags)
	}
}

func TestReportExplicitTagsOverridePolicy(t *testing.T) {
	pol, _ := policy.Parse([]byte("requiredTags: [cost-center]"))

	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"owner": "sre"}})

	svc := newService(t, platform, pol)

	report, err := svc.Report(context.Background(), []string{"owner"})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if report.Summary.CompliantResources != 1 {
		t.Errorf("explicit required tags not honored: %+v", report.Summary)
	}
	if !reflect.DeepEqual(report.RequiredTags, []string{"owner"}) {
		t.Errorf("RequiredTags = %v, want [owner]", report.RequiredTags)
	}
}

func TestReportRequiresTagsOrPolicy(t *testing.T) {
	svc := newService(t, testutil.NewFakePlatform(), nil)

	_, err := svc.Report(context.Background(), nil)
	if errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestReportListingFailure(t *testing.T) {
	platform := testutil.NewFakePlatform()
	platform.Fakes[resource.TypeWarehouse].ListError = errors.Remote("/api/2.0/sql/warehouses", nil)

	svc := newService(t, platform, nil)

	_, err := svc.Report(context.Background(), []string{"team"})
	if errors.CodeOf(err) != errors.ErrCodeRemote {
		t.Fatalf("error = %v, want remote error", err)
	}
}

func TestReportEmptyWorkspace(t *testing.T) {
	svc := newService(t, testutil.NewFakePlatform(), nil)

	report, err := svc.Report(context.Background(), []string{"team"})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if report.Summary.TotalResources != 0 || report.Summary.ComplianceRate != 0 {
		t.Errorf("empty workspace summary = %+v", report.Summary)
	}
}
