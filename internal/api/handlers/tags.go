package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lakespend/lakespend/internal/api/dto"
	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/utils"
	"github.com/lakespend/lakespend/internal/tags"
)

// TagsHandler handles resource and tag HTTP requests
type TagsHandler struct {
	tags   *tags.Service
	logger *logger.Logger
}

// NewTagsHandler creates a new tags handler
func NewTagsHandler(svc *tags.Service, log *logger.Logger) *TagsHandler {
	return &TagsHandler{
		tags:   svc,
		logger: log,
	}
}

// ListResources handles GET /api/v1/resources/{type}
// @Summary List all resources of a type with their tags
// @Tags Resources
// @Produce json
// @Param type path string true "Resource type"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/resources/{type} [get]
func (h *TagsHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	t, err := resource.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, err)
		return
	}

	resources, err := h.tags.ListAll(r.Context(), t)
	if err != nil {
		h.logger.ErrorWithErr(err, "failed to list resources")
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, resources)
}

// SearchResources handles GET /api/v1/resources/search?key=&value=
// @Summary Find resources carrying a tag
// @Tags Resources
// @Produce json
// @Param key query string true "Tag key"
// @Param value query string false "Tag value, exact match"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/resources/search [get]
func (h *TagsHandler) SearchResources(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, errors.Validation("query parameter 'key' is required", nil))
		return
	}

	var value *string
	if r.URL.Query().Has("value") {
		v := r.URL.Query().Get("value")
		value = &v
	}

	matches, err := h.tags.FindByTag(r.Context(), key, value)
	if err != nil {
		h.logger.ErrorWithErr(err, "tag search failed")
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, matches)
}

// GetTags handles GET /api/v1/resources/{type}/{id}/tags
// @Summary Get one resource's tags
// @Tags Tags
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/resources/{type}/{id}/tags [get]
func (h *TagsHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	ref := resource.Ref{
		Type: resource.Type(chi.URLParam(r, "type")),
		ID:   chi.URLParam(r, "id"),
	}

	tagMap, err := h.tags.ListTags(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.TagsResponse{
		Type: string(ref.Type),
		ID:   ref.ID,
		Tags: tagMap,
	})
}

// UpdateTags handles PATCH /api/v1/resources/{type}/{id}/tags
// @Summary Apply a tag delta to one resource
// @Tags Tags
// @Accept json
// @Produce json
// @Param body body dto.TagDeltaRequest true "Tag delta"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/resources/{type}/{id}/tags [patch]
func (h *TagsHandler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	var req dto.TagDeltaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ref := resource.Ref{
		Type: resource.Type(chi.URLParam(r, "type")),
		ID:   chi.URLParam(r, "id"),
	}
	delta := resource.Delta{Set: req.Set, Remove: req.Remove}

	tagMap, err := h.tags.UpdateTags(r.Context(), ref, delta)
	if err != nil {
		h.logger.ErrorWithErr(err, "tag update failed")
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.TagsResponse{
		Type: string(ref.Type),
		ID:   ref.ID,
		Tags: tagMap,
	})
}

// BulkUpdate handles POST /api/v1/bulk/tags
// @Summary Apply one tag delta to many resources
// @Tags Tags
// @Accept json
// @Produce json
// @Param body body dto.BulkUpdateRequest true "Bulk update"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/bulk/tags [post]
func (h *TagsHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	refs := make([]resource.Ref, 0, len(req.Resources))
	for _, rr := range req.Resources {
		refs = append(refs, resource.Ref{Type: resource.Type(rr.Type), ID: rr.ID})
	}
	delta := resource.Delta{Set: req.Set, Remove: req.Remove}

	result, err := h.tags.BulkUpdate(r.Context(), refs, delta)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}
