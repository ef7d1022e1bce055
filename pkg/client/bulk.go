package client

import "context"

// BulkService applies one tag delta to many resources
type BulkService struct {
	client *Client
}

// BulkUpdateRequest is the body of a bulk tag update
type BulkUpdateRequest struct {
	Resources []ResourceRef     `json:"resources"`
	Set       map[string]string `json:"set,omitempty"`
	Remove    []string          `json:"remove,omitempty"`
}

// Update applies the delta to every listed resource. Per-resource
// failures land in the result's Failed slice; the call itself only
// errors when the whole request is rejected.
func (s *BulkService) Update(ctx context.Context, req BulkUpdateRequest) (*BulkResult, error) {
	var result BulkResult
	if err := s.client.doRequest(ctx, "POST", "/api/v1/bulk/tags", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
