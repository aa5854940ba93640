package client

import (
	"context"
	"net/url"
	"strconv"
)

// ComplianceService handles validation and reporting API calls
type ComplianceService struct {
	client *Client
}

type validateRequest struct {
	Document DocumentInput      `json:"document"`
	Options  *ValidationOptions `json:"options,omitempty"`
}

type reportRequest struct {
	OrganizationID string `json:"organization_id"`
}

// Validate validates a document without storing it
func (s *ComplianceService) Validate(ctx context.Context, doc DocumentInput, opts *ValidationOptions) (*ValidationResult, error) {
	var result ValidationResult
	if err := s.client.doRequest(ctx, "POST", "/api/v1/compliance/validate", validateRequest{Document: doc, Options: opts}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateStored validates a stored document and records the result
func (s *ComplianceService) ValidateStored(ctx context.Context, documentID string, opts *ValidationOptions) (*ValidationResult, error) {
	var body interface{}
	if opts != nil {
		body = opts
	}

	var result ValidationResult
	if err := s.client.doRequest(ctx, "POST", "/api/v1/documents/"+url.PathEscape(documentID)+"/validate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Results lists the most recent validation results of a stored document
func (s *ComplianceService) Results(ctx context.Context, documentID string, limit int) ([]ValidationResult, error) {
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Results []ValidationResult `json:"results"`
	}
	if err := s.client.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GenerateReport builds a standard report for an organization
func (s *ComplianceService) GenerateReport(ctx context.Context, organizationID string) (*Report, error) {
	var report Report
	if err := s.client.doRequest(ctx, "POST", "/api/v1/compliance/reports", reportRequest{OrganizationID: organizationID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Predict builds a predictive report for an organization
func (s *ComplianceService) Predict(ctx context.Context, organizationID string) (*Report, error) {
	var report Report
	if err := s.client.doRequest(ctx, "POST", "/api/v1/compliance/predictions", reportRequest{OrganizationID: organizationID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetReport retrieves a stored report
func (s *ComplianceService) GetReport(ctx context.Context, id string) (*Report, error) {
	var report Report
	if err := s.client.doRequest(ctx, "GET", "/api/v1/compliance/reports/"+url.PathEscape(id), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports lists stored reports, newest first. An empty organizationID
// lists reports of every organization.
func (s *ComplianceService) ListReports(ctx context.Context, organizationID string, limit int) ([]ReportSummary, error) {
	query := url.Values{}
	if organizationID != "" {
		query.Set("organization_id", organizationID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/compliance/reports"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		Reports []ReportSummary `json:"reports"`
	}
	if err := s.client.doRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}
