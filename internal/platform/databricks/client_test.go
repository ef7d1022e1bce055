package databricks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		Host:           server.URL,
		Token:          "test-token",
		RatePerSecond:  1000,
		RateBurst:      1000,
		MaxRetries:     3,
		RetryBaseDelay: 1, // nanosecond, keeps retry tests fast
	}, logger.New(logger.Config{Level: "error"}))
	return client, server
}

func TestDoSendsAuthHeader(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
}

func TestDoErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{name: "not found", status: 404, body: `{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"no such cluster"}`, wantCode: errors.ErrCodeNotFound},
		{name: "unauthorized", status: 401, body: `{"message":"invalid token"}`, wantCode: errors.ErrCodeUnauthorized},
		{name: "forbidden maps to unauthorized", status: 403, body: `{"message":"no edit permission"}`, wantCode: errors.ErrCodeUnauthorized},
		{name: "bad request", status: 400, body: `{"error_code":"INVALID_PARAMETER_VALUE","message":"bad spec"}`, wantCode: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := client.Ping(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := errors.CodeOf(err); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestDoRetriesRateLimit(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"clusters":[]}`))
	}))

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() after rate limit retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestDoRateLimitExhaustsRetries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := client.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if code := errors.CodeOf(err); code != errors.ErrCodeRateLimited {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeRateLimited)
	}
}

func TestDoRetriesServerErrorOnce(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"clusters":[]}`))
	}))

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() after one 500: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestForTypeRejectsUnknown(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	if _, err := client.ForType("bucket"); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("ForType(bucket) error = %v, want validation error", err)
	}
	for _, typ := range resource.Types() {
		if _, err := client.ForType(typ); err != nil {
			t.Errorf("ForType(%s) unexpected error: %v", typ, err)
		}
	}
}

func TestClusterWriteTagsPreservesSpec(t *testing.T) {
	var edited map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/clusters/get", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(clusterInfo{
			ClusterID:    "0618-abc",
			ClusterName:  "etl-main",
			SparkVersion: "14.3.x-scala2.12",
			NodeTypeID:   "i3.xlarge",
			NumWorkers:   4,
			CustomTags:   map[string]string{"env": "dev"},
		})
	})
	mux.HandleFunc("/api/2.0/clusters/edit", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&edited)
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypeCluster)

	newTags := map[string]string{"env": "prod", "team": "data"}
	if err := api.WriteTags(context.Background(), "0618-abc", newTags); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}

	if edited["cluster_name"] != "etl-main" || edited["spark_version"] != "14.3.x-scala2.12" {
		t.Errorf("edit did not preserve cluster spec: %v", edited)
	}
	gotTags, _ := edited["custom_tags"].(map[string]interface{})
	if len(gotTags) != 2 || gotTags["env"] != "prod" || gotTags["team"] != "data" {
		t.Errorf("custom_tags = %v, want %v", gotTags, newTags)
	}
}

func TestWarehouseTagsRoundTrip(t *testing.T) {
	var edited struct {
		Name        string         `json:"name"`
		ClusterSize string         `json:"cluster_size"`
		Tags        *warehouseTags `json:"tags"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/sql/warehouses/wh1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(warehouseInfo{
			ID:          "wh1",
			Name:        "analytics",
			ClusterSize: "Small",
			Tags:        &warehouseTags{CustomTags: []tagPair{{Key: "env", Value: "dev"}}},
		})
	})
	mux.HandleFunc("/api/2.0/sql/warehouses/wh1/edit", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&edited)
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypeWarehouse)

	got, err := api.Get(context.Background(), "wh1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !reflect.DeepEqual(got.Tags, map[string]string{"env": "dev"}) {
		t.Errorf("Get() tags = %v, want env=dev", got.Tags)
	}

	if err := api.WriteTags(context.Background(), "wh1", map[string]string{"env": "prod"}); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}
	if edited.Name != "analytics" || edited.ClusterSize != "Small" {
		t.Errorf("edit did not preserve name/cluster_size: %+v", edited)
	}
	if len(edited.Tags.CustomTags) != 1 || edited.Tags.CustomTags[0].Key != "env" || edited.Tags.CustomTags[0].Value != "prod" {
		t.Errorf("edit tags = %v", edited.Tags.CustomTags)
	}
}

func TestJobListPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.1/jobs/list", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_token") == "" {
			w.Write([]byte(`{"jobs":[{"job_id":1,"settings":{"name":"j1","tags":{"team":"data"}}}],"has_more":true,"next_page_token":"p2"}`))
			return
		}
		w.Write([]byte(`{"jobs":[{"job_id":2,"settings":{"name":"j2"}}],"has_more":false}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypeJob)

	got, err := api.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("List() = %+v, want jobs 1 and 2", got)
	}
}

func TestJobWriteTagsClearsLastTag(t *testing.T) {
	var updated map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.1/jobs/update", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&updated)
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypeJob)

	if err := api.WriteTags(context.Background(), "42", map[string]string{}); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}

	// The update must carry an explicit empty tags object; an omitted
	// field would leave the job's old tags in place.
	settings, _ := updated["new_settings"].(map[string]interface{})
	gotTags, ok := settings["tags"]
	if !ok {
		t.Fatalf("update body omitted tags: %v", updated)
	}
	if m, _ := gotTags.(map[string]interface{}); len(m) != 0 {
		t.Errorf("tags = %v, want empty object", gotTags)
	}
}

func TestJobWriteTagsRejectsNonNumericID(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())
	api, _ := client.ForType(resource.TypeJob)

	err := api.WriteTags(context.Background(), "not-a-number", map[string]string{"a": "b"})
	if errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestServingEndpointWriteTagsDiffs(t *testing.T) {
	var patched struct {
		AddTags    []tagPair `json:"add_tags"`
		DeleteTags []string  `json:"delete_tags"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/serving-endpoints/llm", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(servingEndpointInfo{
			Name: "llm",
			Tags: []tagPair{{Key: "env", Value: "dev"}, {Key: "temp", Value: "1"}},
		})
	})
	mux.HandleFunc("/api/2.0/serving-endpoints/llm/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&patched)
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypeServingEndpoint)

	if err := api.WriteTags(context.Background(), "llm", map[string]string{"env": "prod"}); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}
	if len(patched.AddTags) != 1 || patched.AddTags[0].Key != "env" || patched.AddTags[0].Value != "prod" {
		t.Errorf("add_tags = %v", patched.AddTags)
	}
	if !reflect.DeepEqual(patched.DeleteTags, []string{"temp"}) {
		t.Errorf("delete_tags = %v, want [temp]", patched.DeleteTags)
	}
}

func TestPipelineListFetchesSpecs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/pipelines", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statuses":[{"pipeline_id":"p1","name":"bronze"}]}`))
	})
	mux.HandleFunc("/api/2.0/pipelines/p1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pipeline_id":"p1","name":"bronze","spec":{"custom_tags":{"team":"data"}}}`))
	})

	client, _ := newTestClient(t, mux)
	api, _ := client.ForType(resource.TypePipeline)

	got, err := api.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" || got[0].Tags["team"] != "data" {
		t.Errorf("List() = %+v", got)
	}
}
