package databricks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
)

// pipelineAPI manages tags on DLT pipelines. Tags live in the pipeline
// spec's custom_tags; the update call replaces the whole spec, so writes
// resend the fetched spec with only custom_tags changed. The pipeline list
// endpoint returns status rows without specs, so listing fetches each
// pipeline to read its tags.
type pipelineAPI struct {
	client *Client
}

type pipelineState struct {
	PipelineID string `json:"pipeline_id"`
	Name       string `json:"name"`
}

type pipelineInfo struct {
	PipelineID string                     `json:"pipeline_id"`
	Name       string                     `json:"name"`
	Spec       map[string]json.RawMessage `json:"spec,omitempty"`
}

func (a *pipelineAPI) Type() resource.Type {
	return resource.TypePipeline
}

func (a *pipelineAPI) Get(ctx context.Context, id string) (res *resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypePipeline, "get", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.toResource(info), nil
}

func (a *pipelineAPI) List(ctx context.Context) (out []resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypePipeline, "list", start, err) }()

	pageToken := ""
	var states []pipelineState
	for {
		query := url.Values{"max_results": {"100"}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var resp struct {
			Statuses      []pipelineState `json:"statuses"`
			NextPageToken string          `json:"next_page_token"`
		}
		if err = a.client.do(ctx, http.MethodGet, "/api/2.0/pipelines", query, nil, &resp); err != nil {
			return nil, err
		}
		states = append(states, resp.Statuses...)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	out = make([]resource.Resource, 0, len(states))
	for _, s := range states {
		info, err := a.get(ctx, s.PipelineID)
		if err != nil {
			return nil, err
		}
		out = append(out, *a.toResource(info))
	}
	return out, nil
}

func (a *pipelineAPI) WriteTags(ctx context.Context, id string, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { observe(resource.TypePipeline, "write_tags", start, err) }()

	info, err := a.get(ctx, id)
	if err != nil {
		return err
	}

	spec := info.Spec
	if spec == nil {
		spec = make(map[string]json.RawMessage)
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	spec["custom_tags"] = encoded

	return a.client.do(ctx, http.MethodPut, "/api/2.0/pipelines/"+id, nil, spec, nil)
}

func (a *pipelineAPI) get(ctx context.Context, id string) (*pipelineInfo, error) {
	var info pipelineInfo
	if err := a.client.do(ctx, http.MethodGet, "/api/2.0/pipelines/"+id, nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *pipelineAPI) toResource(info *pipelineInfo) *resource.Resource {
	var tags map[string]string
	if raw, ok := info.Spec["custom_tags"]; ok {
		_ = json.Unmarshal(raw, &tags)
	}
	return &resource.Resource{
		Type: resource.TypePipeline,
		ID:   info.PipelineID,
		Name: info.Name,
		Tags: tags,
	}
}
