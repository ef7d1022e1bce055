package tags

import (
	"context"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
	"github.com/lakespend/lakespend/internal/platform/databricks"
)

// Platform provides per-type access to workspace resources
type Platform interface {
	ForType(t resource.Type) (databricks.API, error)
	APIs() []databricks.API
}

// Service reads and mutates resource tags. The workspace is the system of
// record: every operation round-trips through it and nothing is cached, so
// concurrent writers are last-write-wins.
type Service struct {
	platform Platform
	logger   *logger.Logger
}

// NewService creates a tag service
func NewService(platform Platform, log *logger.Logger) *Service {
	return &Service{
		platform: platform,
		logger:   log,
	}
}

// ListTags returns the current tag mapping of one resource. Resources
// without tags yield an empty map, never nil.
func (s *Service) ListTags(ctx context.Context, ref resource.Ref) (map[string]string, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	api, err := s.platform.ForType(ref.Type)
	if err != nil {
		return nil, err
	}

	res, err := api.Get(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	return normalize(res.Tags), nil
}

// UpdateTags applies a tag delta to one resource and returns the resulting
// mapping. The write replaces the resource's full tag set with the merged
// result; there is no optimistic concurrency check.
func (s *Service) UpdateTags(ctx context.Context, ref resource.Ref, delta resource.Delta) (map[string]string, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	api, err := s.platform.ForType(ref.Type)
	if err != nil {
		return nil, err
	}

	res, err := api.Get(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	merged := delta.Apply(res.Tags)
	if err := api.WriteTags(ctx, ref.ID, merged); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"resource": ref.String(),
		"set":      len(delta.Set),
		"removed":  len(delta.Remove),
	}).Info("tags updated")

	return merged, nil
}

// ListAll returns every resource of a type with its tags
func (s *Service) ListAll(ctx context.Context, t resource.Type) ([]resource.Resource, error) {
	api, err := s.platform.ForType(t)
	if err != nil {
		return nil, err
	}

	resources, err := api.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		resources[i].Tags = normalize(resources[i].Tags)
	}
	return resources, nil
}

// BulkItem records the outcome of one resource in a bulk update
type BulkItem struct {
	Ref     resource.Ref      `json:"resource"`
	Tags    map[string]string `json:"tags,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// BulkResult is the full outcome of a bulk update
type BulkResult struct {
	Succeeded []BulkItem `json:"succeeded"`
	Failed    []BulkItem `json:"failed"`
}

// BulkUpdate applies the same delta to every referenced resource,
// sequentially. A failing resource does not stop the run; its error is
// recorded and the remaining resources are still attempted. There is no
// batch atomicity.
func (s *Service) BulkUpdate(ctx context.Context, refs []resource.Ref, delta resource.Delta) (*BulkResult, error) {
	if len(refs) == 0 {
		return nil, errors.Validation("bulk update requires at least one resource", nil)
	}
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	result := &BulkResult{
		Succeeded: make([]BulkItem, 0, len(refs)),
		Failed:    make([]BulkItem, 0),
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			return nil, errors.Internal("bulk update cancelled", ctx.Err())
		}

		tags, err := s.UpdateTags(ctx, ref, delta)
		if err != nil {
			appErr := errors.AsAppError(err)
			result.Failed = append(result.Failed, BulkItem{
				Ref:     ref,
				Code:    appErr.Code,
				Message: appErr.Message,
			})
			metrics.RecordBulkItem("failed")
			s.logger.WithFields(map[string]interface{}{
				"resource": ref.String(),
				"code":     appErr.Code,
			}).Warn("bulk update item failed")
			continue
		}

		result.Succeeded = append(result.Succeeded, BulkItem{Ref: ref, Tags: tags})
		metrics.RecordBulkItem("succeeded")
	}

	return result, nil
}

// FindByTag returns every resource carrying the tag key, across all
// supported types. A non-nil value restricts matches to exact value
// equality. A listing failure for any type fails the whole search.
func (s *Service) FindByTag(ctx context.Context, key string, value *string) ([]resource.Resource, error) {
	if key == "" {
		return nil, errors.Validation("tag key must not be empty", nil)
	}

	matches := make([]resource.Resource, 0)
	for _, api := range s.platform.APIs() {
		resources, err := api.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, res := range resources {
			got, ok := res.Tags[key]
			if !ok {
				continue
			}
			if value != nil && got != *value {
				continue
			}
			res.Tags = normalize(res.Tags)
			matches = append(matches, res)
		}
	}
	return matches, nil
}

func normalize(tags map[string]string) map[string]string {
	if tags == nil {
		return map[string]string{}
	}
	return tags
}
