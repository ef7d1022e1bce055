package client

import "time"

// Resource is one tagged workspace resource
type Resource struct {
	Type string            `json:"type"`
	ID   string            `json:"id"`
	Name string            `json:"name,omitempty"`
	Tags map[string]string `json:"tags"`
}

// ResourceRef addresses one resource
type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TagDelta describes a tag change: keys in Set are written, keys in
// Remove are deleted. Removal wins when a key appears in both.
type TagDelta struct {
	Set    map[string]string `json:"set,omitempty"`
	Remove []string          `json:"remove,omitempty"`
}

// TagsResult carries one resource's tag mapping after a read or update
type TagsResult struct {
	Type string            `json:"type"`
	ID   string            `json:"id"`
	Tags map[string]string `json:"tags"`
}

// BulkItem is one per-resource outcome of a bulk update
type BulkItem struct {
	Ref     ResourceRef       `json:"resource"`
	Tags    map[string]string `json:"tags,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// BulkResult is the outcome of a bulk tag update
type BulkResult struct {
	Succeeded []BulkItem `json:"succeeded"`
	Failed    []BulkItem `json:"failed"`
}

// ResourceReport is one resource's compliance status. RequiredTags is the
// effective requirement for the resource's type, which may differ from
// the report header when a server-side policy override applies.
type ResourceReport struct {
	Type         string            `json:"type"`
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Tags         map[string]string `json:"tags"`
	RequiredTags []string          `json:"required_tags"`
	MissingTags  []string          `json:"missing_tags"`
	Compliant    bool              `json:"compliant"`
}

// TypeSummary aggregates compliance per resource type
type TypeSummary struct {
	Total     int `json:"total"`
	Compliant int `json:"compliant"`
}

// ReportSummary aggregates a compliance report
type ReportSummary struct {
	TotalResources     int                    `json:"total_resources"`
	CompliantResources int                    `json:"compliant_resources"`
	ComplianceRate     float64                `json:"compliance_rate"`
	ByType             map[string]TypeSummary `json:"by_type"`
}

// ComplianceReport is a full workspace compliance report
type ComplianceReport struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	RequiredTags []string         `json:"required_tags"`
	Resources    []ResourceReport `json:"resources"`
	Summary      ReportSummary    `json:"summary"`
}

// BudgetPolicy is an account-level spending policy resources opt into
// via the budget_policy_id tag
type BudgetPolicy struct {
	PolicyID         string    `json:"policy_id,omitempty"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"display_name,omitempty"`
	MaxMonthlyBudget float64   `json:"max_monthly_budget"`
	AlertThresholds  []float64 `json:"alert_thresholds,omitempty"`
}

// BudgetTaggedResource identifies one resource assigned to a policy
type BudgetTaggedResource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// BudgetPolicyUsage lists the resources assigned to one budget policy
type BudgetPolicyUsage struct {
	PolicyID   string                 `json:"policy_id"`
	PolicyName string                 `json:"policy_name,omitempty"`
	Known      bool                   `json:"known"`
	Resources  []BudgetTaggedResource `json:"resources"`
}

// BudgetCoverageReport summarizes budget policy assignment
type BudgetCoverageReport struct {
	GeneratedAt      time.Time           `json:"generated_at"`
	TotalResources   int                 `json:"total_resources"`
	CoveredResources int                 `json:"covered_resources"`
	CoverageRate     float64             `json:"coverage_rate"`
	Policies         []BudgetPolicyUsage `json:"policies"`
}

// ScanSummary is one row of stored scan history
type ScanSummary struct {
	ID                 string    `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	TotalResources     int       `json:"total_resources"`
	CompliantResources int       `json:"compliant_resources"`
	ComplianceRate     float64   `json:"compliance_rate"`
}

// Scan is one stored scan with its full report
type Scan struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Report     ComplianceReport `json:"report"`
}
