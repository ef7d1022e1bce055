package client

import (
	"context"
	"fmt"
	"net/url"
)

// ResourceService lists and searches workspace resources
type ResourceService struct {
	client *Client
}

// List retrieves all resources of one type with their tags
func (s *ResourceService) List(ctx context.Context, resourceType string) ([]Resource, error) {
	path := fmt.Sprintf("/api/v1/resources/%s", url.PathEscape(resourceType))

	var resources []Resource
	if err := s.client.doRequest(ctx, "GET", path, nil, &resources); err != nil {
		return nil, err
	}

	return resources, nil
}

// Search finds resources carrying a tag key across every resource type.
// A nil value matches any value; a non-nil value requires an exact match.
func (s *ResourceService) Search(ctx context.Context, key string, value *string) ([]Resource, error) {
	query := url.Values{}
	query.Set("key", key)
	if value != nil {
		query.Set("value", *value)
	}

	var resources []Resource
	if err := s.client.doRequest(ctx, "GET", "/api/v1/resources/search?"+query.Encode(), nil, &resources); err != nil {
		return nil, err
	}

	return resources, nil
}
