package databricks

import (
	"context"
	"net/http"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
)

// servingEndpointAPI manages tags on model serving endpoints. Endpoints
// are addressed by name and expose a dedicated tag patch call, so a write
// diffs against the current tags instead of resending the endpoint config.
type servingEndpointAPI struct {
	client *Client
}

type servingEndpointInfo struct {
	Name string    `json:"name"`
	ID   string    `json:"id,omitempty"`
	Tags []tagPair `json:"tags,omitempty"`
}

func (a *servingEndpointAPI) Type() resource.Type {
	return resource.TypeServingEndpoint
}

func (a *servingEndpointAPI) Get(ctx context.Context, id string) (res *resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeServingEndpoint, "get", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.toResource(info), nil
}

func (a *servingEndpointAPI) List(ctx context.Context) (out []resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeServingEndpoint, "list", start, err) }()

	var resp struct {
		Endpoints []servingEndpointInfo `json:"endpoints"`
	}
	if err = a.client.do(ctx, http.MethodGet, "/api/2.0/serving-endpoints", nil, nil, &resp); err != nil {
		return nil, err
	}

	out = make([]resource.Resource, 0, len(resp.Endpoints))
	for i := range resp.Endpoints {
		out = append(out, *a.toResource(&resp.Endpoints[i]))
	}
	return out, nil
}

func (a *servingEndpointAPI) WriteTags(ctx context.Context, id string, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { observe(resource.TypeServingEndpoint, "write_tags", start, err) }()

	current, err := a.get(ctx, id)
	if err != nil {
		return err
	}

	var deleteKeys []string
	for _, pair := range current.Tags {
		if _, keep := tags[pair.Key]; !keep {
			deleteKeys = append(deleteKeys, pair.Key)
		}
	}

	body := struct {
		AddTags    []tagPair `json:"add_tags,omitempty"`
		DeleteTags []string  `json:"delete_tags,omitempty"`
	}{
		AddTags:    mapToPairs(tags),
		DeleteTags: deleteKeys,
	}
	return a.client.do(ctx, http.MethodPatch, "/api/2.0/serving-endpoints/"+id+"/tags", nil, body, nil)
}

func (a *servingEndpointAPI) get(ctx context.Context, id string) (*servingEndpointInfo, error) {
	var info servingEndpointInfo
	if err := a.client.do(ctx, http.MethodGet, "/api/2.0/serving-endpoints/"+id, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *servingEndpointAPI) toResource(info *servingEndpointInfo) *resource.Resource {
	var tags map[string]string
	if info.Tags != nil {
		tags = pairsToMap(info.Tags)
	}
	return &resource.Resource{
		Type: resource.TypeServingEndpoint,
		ID:   info.Name,
		Name: info.Name,
		Tags: tags,
	}
}
