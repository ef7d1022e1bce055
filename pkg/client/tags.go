package client

import (
	"context"
	"fmt"
	"net/url"
)

// TagService reads and updates per-resource tags
type TagService struct {
	client *Client
}

func tagsPath(resourceType, id string) string {
	return fmt.Sprintf("/api/v1/resources/%s/%s/tags", url.PathEscape(resourceType), url.PathEscape(id))
}

// Get retrieves one resource's tags
func (s *TagService) Get(ctx context.Context, resourceType, id string) (*TagsResult, error) {
	var result TagsResult
	if err := s.client.doRequest(ctx, "GET", tagsPath(resourceType, id), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Update applies a tag delta to one resource and returns the merged tags
func (s *TagService) Update(ctx context.Context, resourceType, id string, delta TagDelta) (*TagsResult, error) {
	var result TagsResult
	if err := s.client.doRequest(ctx, "PATCH", tagsPath(resourceType, id), delta, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
