package dto

import "time"

// ComplianceReportRequest is the body of POST /compliance/report. An empty
// required_tags list defers to the configured policy.
type ComplianceReportRequest struct {
	RequiredTags []string `json:"required_tags,omitempty" validate:"omitempty,dive,required"`
}

// ScanSummaryResponse is one row of the scan history listing
type ScanSummaryResponse struct {
	ID                 string    `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	TotalResources     int       `json:"total_resources"`
	CompliantResources int       `json:"compliant_resources"`
	ComplianceRate     float64   `json:"compliance_rate"`
}
