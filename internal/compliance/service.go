package compliance

import (
	"context"
	"math"
	"time"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
	"github.com/lakespend/lakespend/internal/policy"
)

// Lister lists workspace resources by type
type Lister interface {
	ListAll(ctx context.Context, t resource.Type) ([]resource.Resource, error)
}

// ResourceReport is the compliance verdict for one resource. RequiredTags
// is the effective requirement the resource was checked against, which
// can differ from the report header when a policy override applies to
// its type.
type ResourceReport struct {
	Type         resource.Type     `json:"type"`
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Tags         map[string]string `json:"tags"`
	RequiredTags []string          `json:"required_tags"`
	MissingTags  []string          `json:"missing_tags"`
	Compliant    bool              `json:"compliant"`
}

// TypeSummary counts resources of one type
type TypeSummary struct {
	Total     int `json:"total"`
	Compliant int `json:"compliant"`
}

// Summary aggregates a report
type Summary struct {
	TotalResources     int                           `json:"total_resources"`
	CompliantResources int                           `json:"compliant_resources"`
	ComplianceRate     float64                       `json:"compliance_rate"`
	ByType             map[resource.Type]TypeSummary `json:"by_type"`
}

// Report is a point-in-time tag compliance view of the workspace
type Report struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	RequiredTags []string         `json:"required_tags"`
	Resources    []ResourceReport `json:"resources"`
	Summary      Summary          `json:"summary"`
}

// Service produces compliance reports
type Service struct {
	lister Lister
	policy *policy.Policy
	logger *logger.Logger
}

// NewService creates a compliance service. The policy may be nil, in which
// case every report must name its required tags explicitly.
func NewService(lister Lister, pol *policy.Policy, log *logger.Logger) *Service {
	return &Service{
		lister: lister,
		policy: pol,
		logger: log,
	}
}

// Report scans every resource across all supported types and marks each
// one compliant iff it carries every required tag key. An explicit
// required list applies to all types and overrides the policy; with no
// list, the policy decides per type.
func (s *Service) Report(ctx context.Context, required []string) (*Report, error) {
	if len(required) == 0 && s.policy == nil {
		return nil, errors.Validation("required tags must be given when no policy is configured", nil)
	}

	start := time.Now()
	report := &Report{
		GeneratedAt:  start.UTC(),
		RequiredTags: required,
		Resources:    make([]ResourceReport, 0),
		Summary: Summary{
			ByType: make(map[resource.Type]TypeSummary),
		},
	}
	if len(required) == 0 {
		report.RequiredTags = s.policy.RequiredTags
	}

	for _, t := range resource.Types() {
		resources, err := s.lister.ListAll(ctx, t)
		if err != nil {
			return nil, err
		}

		requiredForType := required
		if len(requiredForType) == 0 {
			requiredForType = s.policy.RequiredFor(t)
		}

		summary := report.Summary.ByType[t]
		for _, res := range resources {
			missing := resource.MissingTags(res.Tags, requiredForType)
			entry := ResourceReport{
				Type:         res.Type,
				ID:           res.ID,
				Name:         res.Name,
				Tags:         res.Tags,
				RequiredTags: requiredForType,
				MissingTags:  missing,
				Compliant:    len(missing) == 0,
			}
			report.Resources = append(report.Resources, entry)

			summary.Total++
			report.Summary.TotalResources++
			if entry.Compliant {
				summary.Compliant++
				report.Summary.CompliantResources++
			}
		}
		report.Summary.ByType[t] = summary
		metrics.SetResourcesCount(string(t), float64(summary.Total))
	}

	report.Summary.ComplianceRate = rate(report.Summary.CompliantResources, report.Summary.TotalResources)

	metrics.RecordComplianceScan(time.Since(start))
	metrics.SetComplianceRate(report.Summary.ComplianceRate)

	s.logger.WithFields(map[string]interface{}{
		"total":     report.Summary.TotalResources,
		"compliant": report.Summary.CompliantResources,
		"rate":      report.Summary.ComplianceRate,
	}).Info("compliance report generated")

	return report, nil
}

// rate returns compliant/total rounded to 4 decimal places, 0 for an
// empty workspace
func rate(compliant, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(compliant)/float64(total)*10000) / 10000
}
