package dto

import (
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

// ValidationOptionsRequest is the options part of a validation request.
// Recommendations and risk assessment are included unless disabled.
type ValidationOptionsRequest struct {
	Frameworks             []string `json:"frameworks,omitempty" validate:"dive,required"`
	Jurisdictions          []string `json:"jurisdictions,omitempty" validate:"dive,required"`
	StrictMode             *bool    `json:"strict_mode,omitempty"`
	IncludeRecommendations *bool    `json:"include_recommendations,omitempty"`
	IncludeRiskAssessment  *bool    `json:"include_risk_assessment,omitempty"`
}

// ToOptions converts the request into engine options
func (o ValidationOptionsRequest) ToOptions(organizationID string, defaultStrict bool) compliance.ValidationOptions {
	opts := compliance.ValidationOptions{
		Organization:           organizationID,
		Frameworks:             compliance.CanonicalFrameworks(o.Frameworks),
		Jurisdictions:          o.Jurisdictions,
		StrictMode:             defaultStrict,
		IncludeRecommendations: true,
		IncludeRiskAssessment:  true,
	}
	if o.StrictMode != nil {
		opts.StrictMode = *o.StrictMode
	}
	if o.IncludeRecommendations != nil {
		opts.IncludeRecommendations = *o.IncludeRecommendations
	}
	if o.IncludeRiskAssessment != nil {
		opts.IncludeRiskAssessment = *o.IncludeRiskAssessment
	}
	return opts
}

// ValidateRequest validates an inline document that is not stored
type ValidateRequest struct {
	Document DocumentRequest          `json:"document" validate:"required"`
	Options  ValidationOptionsRequest `json:"options"`
}

// ToDocument builds the transient document to validate
func (r ValidateRequest) ToDocument() *document.Document {
	doc := r.Document.ToDocument()
	doc.ID = r.Document.ID
	return doc
}

// ReportRequest asks for an organization report built from stored documents
type ReportRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

// ValidationResultList is the response of GET /documents/{id}/results
type ValidationResultList struct {
	DocumentID string                         `json:"document_id"`
	Results    []*compliance.ValidationResult `json:"results"`
}

// ReportList is the response of GET /compliance/reports
type ReportList struct {
	Reports []ReportSummary `json:"reports"`
}

// ReportSummary is the list view of a stored report
type ReportSummary struct {
	ID                  string    `json:"id"`
	OrganizationID      string    `json:"organization_id"`
	Model               string    `json:"model"`
	CurrentCompliance   float64   `json:"current_compliance"`
	PredictedCompliance float64   `json:"predicted_compliance"`
	HighRiskAreas       int       `json:"high_risk_areas"`
	Recommendations     int       `json:"recommendations"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// SummarizeReport builds the list view of a report
func SummarizeReport(p *compliance.Prediction) ReportSummary {
	return ReportSummary{
		ID:                  p.ID,
		OrganizationID:      p.OrganizationID,
		Model:               p.Model,
		CurrentCompliance:   p.CurrentCompliance,
		PredictedCompliance: p.PredictedCompliance,
		HighRiskAreas:       len(p.HighRiskAreas),
		Recommendations:     len(p.Recommendations),
		GeneratedAt:         p.GeneratedAt,
	}
}
