package tags

import (
	"context"
	"reflect"
	"testing"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/testutil"
)

func newService(platform *testutil.FakePlatform) *Service {
	return NewService(platform, testutil.NewTestLogger())
}

func TestListTags(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"env": "dev"}}).
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c2", Tags: nil})

	svc := newService(platform)

	tests := []struct {
		name    string
		ref     resource.Ref
		want    map[string]string
		wantErr string
	}{
		{
			name: "existing tags",
			ref:  resource.Ref{Type: resource.TypeCluster, ID: "c1"},
			want: map[string]string{"env": "dev"},
		},
		{
			name: "nil tags normalize to empty map",
			ref:  resource.Ref{Type: resource.TypeCluster, ID: "c2"},
			want: map[string]string{},
		},
		{
			name:    "missing resource",
			ref:     resource.Ref{Type: resource.TypeCluster, ID: "nope"},
			wantErr: errors.ErrCodeNotFound,
		},
		{
			name:    "unsupported type",
			ref:     resource.Ref{Type: "bucket", ID: "b1"},
			wantErr: errors.ErrCodeValidation,
		},
		{
			name:    "empty id",
			ref:     resource.Ref{Type: resource.TypeJob, ID: ""},
			wantErr: errors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListTags(context.Background(), tt.ref)
			if tt.wantErr != "" {
				if errors.CodeOf(err) != tt.wantErr {
					t.Fatalf("error = %v, want code %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListTags() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ListTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateTags(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeJob, ID: "42", Tags: map[string]string{"env": "dev", "temp": "1"}})

	svc := newService(platform)
	ref := resource.Ref{Type: resource.TypeJob, ID: "42"}

	got, err := svc.UpdateTags(context.Background(), ref, resource.Delta{
		Set:    map[string]string{"env": "prod", "team": "data"},
		Remove: []string{"temp"},
	})
	if err != nil {
		t.Fatalf("UpdateTags() error: %v", err)
	}

	want := map[string]string{"env": "prod", "team": "data"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UpdateTags() = %v, want %v", got, want)
	}

	// The write must carry the full merged mapping
	fake := platform.Fakes[resource.TypeJob]
	if len(fake.WriteCalls) != 1 || !reflect.DeepEqual(fake.WriteCalls[0].Tags, want) {
		t.Errorf("WriteTags calls = %+v, want one call with %v", fake.WriteCalls, want)
	}
}

func TestUpdateTagsRejectsEmptyDelta(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{}})

	svc := newService(platform)

	_, err := svc.UpdateTags(context.Background(), resource.Ref{Type: resource.TypeCluster, ID: "c1"}, resource.Delta{})
	if errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
	if calls := platform.Fakes[resource.TypeCluster].WriteCalls; len(calls) != 0 {
		t.Errorf("no write expected for invalid delta, got %d", len(calls))
	}
}

func TestUpdateTagsWriteFailure(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeWarehouse, ID: "wh1", Tags: map[string]string{}})
	platform.Fakes[resource.TypeWarehouse].WriteError = errors.Unauthorized("token lacks CAN_MANAGE")

	svc := newService(platform)

	_, err := svc.UpdateTags(context.Background(),
		resource.Ref{Type: resource.TypeWarehouse, ID: "wh1"},
		resource.Delta{Set: map[string]string{"team": "data"}})
	if errors.CodeOf(err) != errors.ErrCodeUnauthorized {
		t.Fatalf("error = %v, want unauthorized", err)
	}
}

func TestListAll(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypePipeline, ID: "p1", Tags: map[string]string{"team": "data"}}).
		Add(&resource.Resource{Type: resource.TypePipeline, ID: "p2"})

	svc := newService(platform)

	got, err := svc.ListAll(context.Background(), resource.TypePipeline)
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListAll() returned %d resources, want 2", len(got))
	}
	for _, res := range got {
		if res.Tags == nil {
			t.Errorf("resource %s has nil tags, want empty map", res.ID)
		}
	}
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"env": "dev"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "7", Tags: map[string]string{}})

	svc := newService(platform)

	refs := []resource.Ref{
		{Type: resource.TypeCluster, ID: "c1"},
		{Type: resource.TypeCluster, ID: "missing"},
		{Type: "bucket", ID: "b1"},
		{Type: resource.TypeJob, ID: "7"},
	}
	delta := resource.Delta{Set: map[string]string{"cost-center": "cc-42"}}

	result, err := svc.BulkUpdate(context.Background(), refs, delta)
	if err != nil {
		t.Fatalf("BulkUpdate() error: %v", err)
	}

	if len(result.Succeeded) != 2 {
		t.Fatalf("Succeeded = %+v, want 2 items", result.Succeeded)
	}
	if result.Succeeded[0].Ref.ID != "c1" || result.Succeeded[1].Ref.ID != "7" {
		t.Errorf("Succeeded order = %+v, want c1 then 7", result.Succeeded)
	}
	if got := result.Succeeded[0].Tags["cost-center"]; got != "cc-42" {
		t.Errorf("succeeded tags = %v", result.Succeeded[0].Tags)
	}

	if len(result.Failed) != 2 {
		t.Fatalf("Failed = %+v, want 2 items", result.Failed)
	}
	if result.Failed[0].Code != errors.ErrCodeNotFound {
		t.Errorf("failed[0].Code = %s, want %s", result.Failed[0].Code, errors.ErrCodeNotFound)
	}
	if result.Failed[1].Code != errors.ErrCodeValidation {
		t.Errorf("failed[1].Code = %s, want %s", result.Failed[1].Code, errors.ErrCodeValidation)
	}
}

func TestBulkUpdateValidatesInput(t *testing.T) {
	svc := newService(testutil.NewFakePlatform())

	if _, err := svc.BulkUpdate(context.Background(), nil, resource.Delta{Set: map[string]string{"a": "b"}}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("empty refs: error = %v, want validation", err)
	}

	refs := []resource.Ref{{Type: resource.TypeCluster, ID: "c1"}}
	if _, err := svc.BulkUpdate(context.Background(), refs, resource.Delta{}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("empty delta: error = %v, want validation", err)
	}
}

func TestFindByTag(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"team": "data"}}).
		Add(&resource.Resource{Type: resource.TypeJob, ID: "1", Tags: map[string]string{"team": "sre"}}).
		Add(&resource.Resource{Type: resource.TypePipeline, ID: "p1", Tags: map[string]string{"env": "prod"}})

	svc := newService(platform)

	byKey, err := svc.FindByTag(context.Background(), "team", nil)
	if err != nil {
		t.Fatalf("FindByTag() error: %v", err)
	}
	if len(byKey) != 2 {
		t.Errorf("FindByTag(team) = %d resources, want 2", len(byKey))
	}

	value := "sre"
	byValue, err := svc.FindByTag(context.Background(), "team", &value)
	if err != nil {
		t.Fatalf("FindByTag() error: %v", err)
	}
	if len(byValue) != 1 || byValue[0].ID != "1" {
		t.Errorf("FindByTag(team=sre) = %+v, want job 1", byValue)
	}

	none, err := svc.FindByTag(context.Background(), "owner", nil)
	if err != nil {
		t.Fatalf("FindByTag() error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("FindByTag(owner) = %+v, want none", none)
	}
}

func TestFindByTagListingFailureFailsSearch(t *testing.T) {
	platform := testutil.NewFakePlatform().
		Add(&resource.Resource{Type: resource.TypeCluster, ID: "c1", Tags: map[string]string{"team": "data"}})
	platform.Fakes[resource.TypeWarehouse].ListError = errors.Remote("/api/2.0/sql/warehouses", nil)

	svc := newService(platform)

	_, err := svc.FindByTag(context.Background(), "team", nil)
	if errors.CodeOf(err) != errors.ErrCodeRemote {
		t.Fatalf("error = %v, want remote error", err)
	}
}
