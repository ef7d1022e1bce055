package worker

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/lakespend/lakespend/internal/compliance"
	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/policy"
	"github.com/lakespend/lakespend/internal/store"
	"github.com/lakespend/lakespend/internal/tags"
	"github.com/lakespend/lakespend/internal/testutil"
)

func TestRunOncePersistsScan(t *testing.T) {
	log := testutil.NewTestLogger()

	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"team": "data"}}).
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c2", Tags: nil})

	pol, err := policy.Parse([]byte("requiredTags: [team]"))
	if err != nil {
		t.Fatalf("policy.Parse() error: %v", err)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	defer st.Close()

	svc := compliance.NewService(tags.NewService(platform, log), pol, log)
	scheduler := NewScanScheduler(svc, st, "@hourly", log)

	scheduler.RunOnce(context.Background())

	scans, err := st.ListScans(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListScans() error: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("persisted %d scans, want 1", len(scans))
	}
	if scans[0].TotalResources != 2 || scans[0].CompliantResources != 1 {
		t.Errorf("scan summary = %+v", scans[0])
	}

	full, err := st.GetScan(context.Background(), scans[0].ID)
	if err != nil {
		t.Fatalf("GetScan() error: %v", err)
	}
	var report compliance.Report
	if err := json.Unmarshal(full.Report, &report); err != nil {
		t.Fatalf("report payload is not a valid report: %v", err)
	}
	if len(report.Resources) != 2 {
		t.Errorf("stored report has %d resources, want 2", len(report.Resources))
	}
}

func TestRunOnceSkipsPersistOnScanFailure(t *testing.T) {
	log := testutil.NewTestLogger()

	platform := testutil.NewFakePlatform()
	// No policy and no explicit tags makes the scan fail validation
	svc := compliance.NewService(tags.NewService(platform, log), nil, log)

	st, err := store.Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	defer st.Close()

	scheduler := NewScanScheduler(svc, st, "@hourly", log)
	scheduler.RunOnce(context.Background())

	scans, err := st.ListScans(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListScans() error: %v", err)
	}
	if len(scans) != 0 {
		t.Errorf("persisted %d scans, want 0", len(scans))
	}
}
