package databricks

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
)

// jobAPI manages tags on workflow jobs. Job tags live in the job settings;
// the jobs update call takes a partial new_settings, so a tag write does
// not have to resend the whole job definition.
type jobAPI struct {
	client *Client
}

type jobSettings struct {
	Name string            `json:"name,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

type jobInfo struct {
	JobID    int64        `json:"job_id"`
	Settings *jobSettings `json:"settings,omitempty"`
}

func (a *jobAPI) Type() resource.Type {
	return resource.TypeJob
}

func (a *jobAPI) Get(ctx context.Context, id string) (res *resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeJob, "get", start, err) }()

	jobID, err := parseJobID(id)
	if err != nil {
		return nil, err
	}

	query := url.Values{"job_id": {strconv.FormatInt(jobID, 10)}}
	var info jobInfo
	if err = a.client.do(ctx, http.MethodGet, "/api/2.1/jobs/get", query, nil, &info); err != nil {
		return nil, err
	}
	return a.toResource(&info), nil
}

func (a *jobAPI) List(ctx context.Context) (out []resource.Resource, err error) {
	start := time.Now()
	defer func() { observe(resource.TypeJob, "list", start, err) }()

	pageToken := ""
	for {
		query := url.Values{"limit": {"100"}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var resp struct {
			Jobs          []jobInfo `json:"jobs"`
			HasMore       bool      `json:"has_more"`
			NextPageToken string    `json:"next_page_token"`
		}
		if err = a.client.do(ctx, http.MethodGet, "/api/2.1/jobs/list", query, nil, &resp); err != nil {
			return nil, err
		}

		for i := range resp.Jobs {
			out = append(out, *a.toResource(&resp.Jobs[i]))
		}

		if !resp.HasMore || resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

func (a *jobAPI) WriteTags(ctx context.Context, id string, tags map[string]string) (err error) {
	start := time.Now()
	defer func() { observe(resource.TypeJob, "write_tags", start, err) }()

	jobID, err := parseJobID(id)
	if err != nil {
		return err
	}

	if tags == nil {
		tags = map[string]string{}
	}

	// jobs/update leaves omitted fields unchanged, so the tags key must be
	// sent even when the merged mapping is empty or the old tags survive.
	body := struct {
		JobID       int64 `json:"job_id"`
		NewSettings struct {
			Tags map[string]string `json:"tags"`
		} `json:"new_settings"`
	}{JobID: jobID}
	body.NewSettings.Tags = tags

	return a.client.do(ctx, http.MethodPost, "/api/2.1/jobs/update", nil, body, nil)
}

func (a *jobAPI) toResource(info *jobInfo) *resource.Resource {
	res := &resource.Resource{
		Type: resource.TypeJob,
		ID:   strconv.FormatInt(info.JobID, 10),
	}
	if info.Settings != nil {
		res.Name = info.Settings.Name
		res.Tags = info.Settings.Tags
	}
	return res
}

func parseJobID(id string) (int64, error) {
	jobID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, errors.Validation("job id must be numeric: "+id, nil)
	}
	return jobID, nil
}
