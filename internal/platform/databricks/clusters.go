package databricks

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
)

// clusterAPI manages tags on all-purpose clusters. The clusters edit call
// replaces the whole cluster spec, so writes preserve the fields the
// workspace requires alongside custom_tags.
type clusterAPI struct {
	client *Client
}

type clusterAutoscale struct {
	MinWorkers int `json:"min_workers"`
	MaxWorkers int `json:"max_workers"`
}

type clusterInfo struct {
	ClusterID      string            `json:"cluster_id"`
	ClusterName    string            `json:"cluster_name"`
	SparkVersion   string            `json:"spark_version"`
	NodeTypeID     string            `json:"node_type_id,omitempty"`
	InstancePoolID string            `json:"instance_pool_id,omitempty"`
	NumWorkers     int               `json:"num_workers,omitempty"`
	Autoscale      *clusterAutoscale `json:"autoscale,omitempty"`
	CustomTags     map[string]string `json:"custom_tags,omitempty"`
}

func (a *clusterAPI) Type() resource.Type {
	return resource.TypeCluster
}

func (a *clusterAPI) Get(ctx context.Context, id string) (res *resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeCluster, "get", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.toResource(info), nil
}

func (a *clusterAPI) List(ctx context.Context) (out []resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeCluster, "list", start, err) }()

	var resp struct {
		Clusters []clusterInfo `json:"clusters"`
	}
	if err = a.client.do(ctx, http.MethodGet, "/api/2.0/clusters/list", nil, nil, &resp); err != nil {
		return nil, err
	}

	out = make([]resource.Resource, 0, len(resp.Clusters))
	for i := range resp.Clusters {
		out = append(out, *a.toResource(&resp.Clusters[i]))
	}
	return out, nil
}

func (a *clusterAPI) WriteTags(ctx context.Context, id string, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { observe(resource.TypeCluster, "write_tags", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return err
	}

	info.CustomTags = tags
	return a.client.do(ctx, http.MethodPost, "/api/2.0/clusters/edit", nil, info, nil)
}

func (a *clusterAPI) get(ctx context.Context, id string) (*clusterInfo, error) {
	query := url.Values{"cluster_id": {id}}
	var info clusterInfo
	if err := a.client.do(ctx, http.MethodGet, "/api/2.0/clusters/get", query, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *clusterAPI) toResource(info *clusterInfo) *resource.Resource {
	return &resource.Resource{
		Type: resource.TypeCluster,
		ID:   info.ClusterID,
		Name: info.ClusterName,
		Tags: info.CustomTags,
	}
}
