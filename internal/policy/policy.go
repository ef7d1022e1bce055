package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/validator"
)

// Policy declares the tag keys every resource must carry. Overrides
// replace the default key set for a specific resource type.
type Policy struct {
	RequiredTags []string            `yaml:"requiredTags" validate:"required,min=1,dive,required"`
	Overrides    map[string][]string `yaml:"overrides,omitempty" validate:"omitempty,dive,min=1,dive,required"`
}

// Load reads and validates a policy file
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML policy document
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Validation("failed to decode policy YAML", err.Error())
	}

	if verrs := validator.Validate(&p); len(verrs) > 0 {
		return nil, errors.Validation("invalid policy", verrs)
	}

	for typeName := range p.Overrides {
		if _, err := resource.ParseType(typeName); err != nil {
			return nil, errors.Validation(fmt.Sprintf("policy override names unknown resource type: %q", typeName), nil)
		}
	}

	return &p, nil
}

// RequiredFor returns the required tag keys for a resource type
func (p *Policy) RequiredFor(t resource.Type) []string {
	if override, ok := p.Overrides[string(t)]; ok {
		return override
	}
	return p.RequiredTags
}
