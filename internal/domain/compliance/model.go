package compliance

import (
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/cost"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
)

// Severity is the severity of a rule or an issue
type Severity string

// Severity levels
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether s is one of the known severities
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Position is a zero-based line/character offset inside a document
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Location is a range inside a document
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// RegulatoryReference points an issue at the regulation it concerns
type RegulatoryReference struct {
	Framework   string `json:"framework"`
	Section     string `json:"section,omitempty"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// Issue is a single finding produced by one rule against one document.
// Issues are values; nothing mutates them after creation.
type Issue struct {
	ID                  string               `json:"id"`
	Severity            Severity             `json:"severity"`
	Message             string               `json:"message"`
	Location            *Location            `json:"location,omitempty"`
	RegulatoryReference *RegulatoryReference `json:"regulatory_reference,omitempty"`
	SuggestedFix        string               `json:"suggested_fix,omitempty"`
}

// Framework returns the framework of the issue's regulatory reference, or ""
func (i Issue) Framework() string {
	if i.RegulatoryReference == nil {
		return ""
	}
	return i.RegulatoryReference.Framework
}

// ValidationOptions controls a single validation call
type ValidationOptions struct {
	Organization           string   `json:"organization,omitempty"`
	Jurisdictions          []string `json:"jurisdictions,omitempty"`
	Frameworks             []string `json:"frameworks,omitempty"`
	StrictMode             bool     `json:"strict_mode"`
	IncludeRecommendations bool     `json:"include_recommendations"`
	IncludeRiskAssessment  bool     `json:"include_risk_assessment"`
}

// ValidationResult is the outcome of validating one document
type ValidationResult struct {
	ID              string                          `json:"id"`
	DocumentID      string                          `json:"document_id"`
	DocumentType    string                          `json:"document_type,omitempty"`
	IsCompliant     bool                            `json:"is_compliant"`
	Score           float64                         `json:"score"`
	Issues          []Issue                         `json:"issues"`
	Recommendations []recommendation.Recommendation `json:"recommendations,omitempty"`
	RiskAreas       []RiskArea                      `json:"risk_areas,omitempty"`
	ValidatedAt     time.Time                       `json:"validated_at"`
}

// Complexity levels for risk areas
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// MaxRiskScore caps every computed risk score
const MaxRiskScore = 0.95

// RiskArea is a framework-scoped risk summary derived from a set of issues
type RiskArea struct {
	Area              string    `json:"area"`
	Framework         string    `json:"framework"`
	RiskScore         float64   `json:"risk_score"`
	ImpactDescription string    `json:"impact_description"`
	Deadline          time.Time `json:"deadline"`
	Complexity        string    `json:"complexity"`
}

// Timeline event types
const (
	EventTypeDeadline = "deadline"
	EventTypeInternal = "internal"
	EventTypeReview   = "review"
)

// Timeline event importance
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

// TimelineEvent is a dated entry on a compliance timeline
type TimelineEvent struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Importance  string    `json:"importance"`
	Type        string    `json:"type"`
}

// Timeline is a chronologically ordered event list with its critical path
type Timeline struct {
	Events       []TimelineEvent `json:"events"`
	CriticalPath []time.Time     `json:"critical_path"`
}

// Prediction models
const (
	ModelStandard   = "standard"
	ModelPredictive = "predictive"
)

// DocumentSummary is the per-document part of an organization report
type DocumentSummary struct {
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title,omitempty"`
	Score       float64 `json:"score"`
	IsCompliant bool    `json:"is_compliant"`
	IssueCount  int     `json:"issue_count"`
}

// Prediction is an organization-level compliance report and forecast
type Prediction struct {
	ID                  string                          `json:"id"`
	OrganizationID      string                          `json:"organization_id"`
	Model               string                          `json:"model"`
	CurrentCompliance   float64                         `json:"current_compliance"`
	PredictedCompliance float64                         `json:"predicted_compliance"`
	HighRiskAreas       []RiskArea                      `json:"high_risk_areas"`
	Recommendations     []recommendation.Recommendation `json:"recommendations"`
	Timeline            Timeline                        `json:"timeline"`
	CostEstimate        cost.Estimate                   `json:"cost_estimate"`
	Documents           []DocumentSummary               `json:"documents"`
	UpcomingChanges     []regulatory.Change             `json:"upcoming_changes,omitempty"`
	GeneratedAt         time.Time                       `json:"generated_at"`
}
