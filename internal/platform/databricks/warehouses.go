package databricks

import (
	"context"
	"net/http"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
)

// warehouseAPI manages tags on SQL warehouses. The warehouse API carries
// tags as a list of key/value pairs; writes preserve name and cluster_size,
// which the edit call requires.
type warehouseAPI struct {
	client *Client
}

type warehouseTags struct {
	CustomTags []tagPair `json:"custom_tags"`
}

type warehouseInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ClusterSize string         `json:"cluster_size"`
	Tags        *warehouseTags `json:"tags,omitempty"`
}

func (a *warehouseAPI) Type() resource.Type {
	return resource.TypeWarehouse
}

func (a *warehouseAPI) Get(ctx context.Context, id string) (res *resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeWarehouse, "get", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.toResource(info), nil
}

func (a *warehouseAPI) List(ctx context.Context) (out []resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeWarehouse, "list", start, err) }()

	var resp struct {
		Warehouses []warehouseInfo `json:"warehouses"`
	}
	if err = a.client.do(ctx, http.MethodGet, "/api/2.0/sql/warehouses", nil, nil, &resp); err != nil {
		return nil, err
	}

	out = make([]resource.Resource, 0, len(resp.Warehouses))
	for i := range resp.Warehouses {
		out = append(out, *a.toResource(&resp.Warehouses[i]))
	}
	return out, nil
}

func (a *warehouseAPI) WriteTags(ctx context.Context, id string, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { observe(resource.TypeWarehouse, "write_tags", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return err
	}

	body := warehouseInfo{
		ID:          info.ID,
		Name:        info.Name,
		ClusterSize: info.ClusterSize,
		Tags:        &warehouseTags{CustomTags: mapToPairs(tags)},
	}
	return a.client.do(ctx, http.MethodPost, "/api/2.0/sql/warehouses/"+id+"/edit", nil, body, nil)
}

func (a *warehouseAPI) get(ctx context.Context, id string) (*warehouseInfo, error) {
	var info warehouseInfo
	if err := a.client.do(ctx, http.MethodGet, "/api/2.0/sql/warehouses/"+id, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *warehouseAPI) toResource(info *warehouseInfo) *resource.Resource {
	var tags map[string]string
	if info.Tags != nil {
		tags = pairsToMap(info.Tags.CustomTags)
	}
	return &resource.Resource{
		Type: resource.TypeWarehouse,
		ID:   info.ID,
		Name: info.Name,
		Tags: tags,
	}
}
