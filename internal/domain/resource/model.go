package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lakespend/lakespend/internal/pkg/errors"
)

// Type identifies a kind of taggable workspace resource
type Type string

const (
	TypeCluster         Type = "cluster"
	TypeWarehouse       Type = "warehouse"
	TypeJob             Type = "job"
	TypePipeline        Type = "pipeline"
	TypeServingEndpoint Type = "serving-endpoint"
)

// Types lists every supported resource type in a stable order
func Types() []Type {
	return []Type{TypeCluster, TypeWarehouse, TypeJob, TypePipeline, TypeServingEndpoint}
}

// ParseType parses a resource type string, rejecting unknown types
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeCluster, TypeWarehouse, TypeJob, TypePipeline, TypeServingEndpoint:
		return t, nil
	}
	return "", errors.Validation(fmt.Sprintf("unsupported resource type: %q", s), map[string]interface{}{
		"supported": Types(),
	})
}

// Resource is a snapshot of a taggable workspace resource. Identity is
// (Type, ID); Name is display-only and may be empty.
type Resource struct {
	Type Type              `json:"type"`
	ID   string            `json:"id"`
	Name string            `json:"name,omitempty"`
	Tags map[string]string `json:"tags"`
}

// Ref addresses a resource without carrying its state
type Ref struct {
	Type Type   `json:"type"`
	ID   string `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// Validate checks that the ref names a supported type and a non-empty id
func (r Ref) Validate() error {
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.Validation("resource id must not be empty", nil)
	}
	return nil
}

// Delta is a partial tag change: Set entries are merged in, then Remove
// keys are deleted. Keys not named are left untouched. When a key appears
// in both, the removal wins.
type Delta struct {
	Set    map[string]string `json:"set,omitempty"`
	Remove []string          `json:"remove,omitempty"`
}

// Validate rejects deltas that change nothing and deltas with empty keys
func (d Delta) Validate() error {
	if len(d.Set) == 0 && len(d.Remove) == 0 {
		return errors.Validation("tag delta must set or remove at least one key", nil)
	}
	for k := range d.Set {
		if strings.TrimSpace(k) == "" {
			return errors.Validation("tag keys must not be empty", nil)
		}
	}
	for _, k := range d.Remove {
		if strings.TrimSpace(k) == "" {
			return errors.Validation("tag keys must not be empty", nil)
		}
	}
	return nil
}

// Apply produces the tag mapping that results from applying the delta to
// tags. The input map is not mutated; applying the same delta twice gives
// the same result.
func (d Delta) Apply(tags map[string]string) map[string]string {
	result := make(map[string]string, len(tags)+len(d.Set))
	for k, v := range tags {
		result[k] = v
	}
	for k, v := range d.Set {
		result[k] = v
	}
	for _, k := range d.Remove {
		delete(result, k)
	}
	return result
}

// MissingTags returns the required keys absent from tags, sorted
func MissingTags(tags map[string]string, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := tags[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
