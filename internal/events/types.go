package events

import (
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
)

// Event names
const (
	DocumentSaved       = "document.saved"
	TemplatesRendered   = "templates.rendered"
	RegulationsUpdated  = "regulations.updated"
	ComplianceValidated = "compliance.validated"
	CompliancePredicted = "compliance.predicted"
	OrganizationUpdated = "organization:updated"
)

// DocumentPayload accompanies document.saved and templates.rendered
type DocumentPayload struct {
	Document *document.Document `json:"document"`
}

// RegulationsPayload accompanies regulations.updated
type RegulationsPayload struct {
	Jurisdictions []string            `json:"jurisdictions,omitempty"`
	Changes       []regulatory.Change `json:"changes,omitempty"`
}

// OrganizationPayload accompanies organization:updated
type OrganizationPayload struct {
	OrganizationID string `json:"organization_id"`
}

// ValidatedPayload accompanies compliance.validated
type ValidatedPayload struct {
	DocumentID   string    `json:"document_id"`
	DocumentType string    `json:"document_type"`
	IsCompliant  bool      `json:"is_compliant"`
	Score        float64   `json:"score"`
	IssueCount   int       `json:"issue_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// PredictedPayload accompanies compliance.predicted
type PredictedPayload struct {
	ReportID            string    `json:"report_id"`
	OrganizationID      string    `json:"organization_id"`
	Model               string    `json:"model"`
	CurrentCompliance   float64   `json:"current_compliance"`
	PredictedCompliance float64   `json:"predicted_compliance"`
	HighRiskAreas       int       `json:"high_risk_areas"`
	Timestamp           time.Time `json:"timestamp"`
}
