package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ComplianceService runs reports and reads scan history
type ComplianceService struct {
	client *Client
}

// Report runs an on-demand compliance report. With no required tags the
// server falls back to its configured tag policy.
func (s *ComplianceService) Report(ctx context.Context, requiredTags []string) (*ComplianceReport, error) {
	path := "/api/v1/compliance/report"
	if len(requiredTags) > 0 {
		query := url.Values{}
		query.Set("required_tags", strings.Join(requiredTags, ","))
		path += "?" + query.Encode()
	}

	var report ComplianceReport
	if err := s.client.doRequest(ctx, "GET", path, nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// ListScans retrieves recent scheduled scans, newest first. A zero
// limit uses the server default.
func (s *ComplianceService) ListScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	path := "/api/v1/compliance/scans"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var scans []ScanSummary
	if err := s.client.doRequest(ctx, "GET", path, nil, &scans); err != nil {
		return nil, err
	}

	return scans, nil
}

// GetScan retrieves one stored scan with its full report
func (s *ComplianceService) GetScan(ctx context.Context, id string) (*Scan, error) {
	path := fmt.Sprintf("/api/v1/compliance/scans/%s", url.PathEscape(id))

	var scan Scan
	if err := s.client.doRequest(ctx, "GET", path, nil, &scan); err != nil {
		return nil, err
	}

	return &scan, nil
}
