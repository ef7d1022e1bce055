package dto

// ResourceRefRequest addresses one resource in a request body
type ResourceRefRequest struct {
	Type string `json:"type" validate:"required"`
	ID   string `json:"id" validate:"required"`
}

// TagDeltaRequest is the body of PATCH /resources/{type}/{id}/tags
type TagDeltaRequest struct {
	Set    map[string]string `json:"set,omitempty"`
	Remove []string          `json:"remove,omitempty"`
}

// BulkUpdateRequest is the body of POST /bulk/tags
type BulkUpdateRequest struct {
	Resources []ResourceRefRequest `json:"resources" validate:"required,min=1,dive"`
	Set       map[string]string    `json:"set,omitempty"`
	Remove    []string             `json:"remove,omitempty"`
}

// TagsResponse carries one resource's tag mapping
type TagsResponse struct {
	Type string            `json:"type"`
	ID   string            `json:"id"`
	Tags map[string]string `json:"tags"`
}
