package client

import "time"

// Document is a legal document stored by the engine
type Document struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Type           string            `json:"type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Authors        []string          `json:"authors,omitempty"`
	Status         string            `json:"status,omitempty"`
	Version        int               `json:"version"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at,omitempty"`
}

// DocumentInput creates or replaces a document
type DocumentInput struct {
	ID             string            `json:"id,omitempty"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Type           string            `json:"type"` // contract, privacy_policy, nda, ...
	Metadata       map[string]string `json:"metadata,omitempty"`
	Authors        []string          `json:"authors,omitempty"`
	Status         string            `json:"status,omitempty"` // draft, review, approved, signed, archived
}

// Organization is the subject of organization reports
type Organization struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Industry             string    `json:"industry,omitempty"`
	Size                 int       `json:"size"`
	Jurisdictions        []string  `json:"jurisdictions,omitempty"`
	RegulatoryFrameworks []string  `json:"regulatory_frameworks,omitempty"`
	ContactEmail         string    `json:"contact_email,omitempty"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// OrganizationInput creates or replaces an organization
type OrganizationInput struct {
	ID                   string   `json:"id,omitempty"`
	Name                 string   `json:"name"`
	Industry             string   `json:"industry,omitempty"`
	Size                 int      `json:"size"`
	Jurisdictions        []string `json:"jurisdictions,omitempty"`
	RegulatoryFrameworks []string `json:"regulatory_frameworks,omitempty"`
	ContactEmail         string   `json:"contact_email,omitempty"`
}

// ValidationOptions tunes a validation call. Nil fields use the server default.
type ValidationOptions struct {
	Frameworks             []string `json:"frameworks,omitempty"`
	Jurisdictions          []string `json:"jurisdictions,omitempty"`
	StrictMode             *bool    `json:"strict_mode,omitempty"`
	IncludeRecommendations *bool    `json:"include_recommendations,omitempty"`
	IncludeRiskAssessment  *bool    `json:"include_risk_assessment,omitempty"`
}

// Position is a zero-based line/character offset
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Location is a range inside a document
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// RegulatoryReference points an issue at a regulation
type RegulatoryReference struct {
	Framework   string `json:"framework"`
	Section     string `json:"section,omitempty"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// Issue is a single rule finding
type Issue struct {
	ID                  string               `json:"id"`
	Severity            string               `json:"severity"` // info, warning, error, critical
	Message             string               `json:"message"`
	Location            *Location            `json:"location,omitempty"`
	RegulatoryReference *RegulatoryReference `json:"regulatory_reference,omitempty"`
	SuggestedFix        string               `json:"suggested_fix,omitempty"`
}

// Recommendation is a remediation item
type Recommendation struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Framework   string    `json:"framework,omitempty"`
	Priority    string    `json:"priority"`
	Effort      string    `json:"effort"`
	Steps       []string  `json:"steps"`
	Impact      float64   `json:"impact"`
	Deadline    time.Time `json:"deadline"`
}

// RiskArea is a framework-scoped risk summary
type RiskArea struct {
	Area              string    `json:"area"`
	Framework         string    `json:"framework"`
	RiskScore         float64   `json:"risk_score"`
	ImpactDescription string    `json:"impact_description"`
	Deadline          time.Time `json:"deadline"`
	Complexity        string    `json:"complexity"`
}

// ValidationResult is the outcome of validating one document
type ValidationResult struct {
	ID              string           `json:"id"`
	DocumentID      string           `json:"document_id"`
	DocumentType    string           `json:"document_type,omitempty"`
	IsCompliant     bool             `json:"is_compliant"`
	Score           float64          `json:"score"`
	Issues          []Issue          `json:"issues"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	RiskAreas       []RiskArea       `json:"risk_areas,omitempty"`
	ValidatedAt     time.Time        `json:"validated_at"`
}

// TimelineEvent is a dated timeline entry
type TimelineEvent struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Importance  string    `json:"importance"`
	Type        string    `json:"type"`
}

// Timeline is an ordered event list with its critical path
type Timeline struct {
	Events       []TimelineEvent `json:"events"`
	CriticalPath []time.Time     `json:"critical_path"`
}

// CostItem is one line of a cost breakdown
type CostItem struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// CostEstimate is the projected remediation cost of a report
type CostEstimate struct {
	Model     string     `json:"model"`
	Currency  string     `json:"currency"`
	Total     float64    `json:"total"`
	Breakdown []CostItem `json:"breakdown"`
	Scenarios struct {
		Best     float64 `json:"best"`
		Expected float64 `json:"expected"`
		Worst    float64 `json:"worst"`
	} `json:"scenarios"`
	ROI float64 `json:"roi"`
}

// DocumentSummary is the per-document part of a report
type DocumentSummary struct {
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title,omitempty"`
	Score       float64 `json:"score"`
	IsCompliant bool    `json:"is_compliant"`
	IssueCount  int     `json:"issue_count"`
}

// RegulatoryChange is an upcoming regulatory change
type RegulatoryChange struct {
	ID            string    `json:"id"`
	Framework     string    `json:"framework"`
	Jurisdiction  string    `json:"jurisdiction"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary,omitempty"`
	Impact        string    `json:"impact"`
	EffectiveDate time.Time `json:"effective_date"`
	URI           string    `json:"uri,omitempty"`
}

// Report is an organization compliance report or forecast
type Report struct {
	ID                  string             `json:"id"`
	OrganizationID      string             `json:"organization_id"`
	Model               string             `json:"model"` // standard or predictive
	CurrentCompliance   float64            `json:"current_compliance"`
	PredictedCompliance float64            `json:"predicted_compliance"`
	HighRiskAreas       []RiskArea         `json:"high_risk_areas"`
	Recommendations     []Recommendation   `json:"recommendations"`
	Timeline            Timeline           `json:"timeline"`
	CostEstimate        CostEstimate       `json:"cost_estimate"`
	Documents           []DocumentSummary  `json:"documents"`
	UpcomingChanges     []RegulatoryChange `json:"upcoming_changes,omitempty"`
	GeneratedAt         time.Time          `json:"generated_at"`
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

// Rule is a registered compliance rule
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Framework   string `json:"framework"`
	Severity    string `json:"severity"`
}

// RuleDefinition describes a pattern rule to register
type RuleDefinition struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description,omitempty" yaml:"description"`
	Framework     string   `json:"framework" yaml:"framework"`
	Severity      string   `json:"severity" yaml:"severity"`
	Required      []string `json:"required,omitempty" yaml:"required"`
	Forbidden     []string `json:"forbidden,omitempty" yaml:"forbidden"`
	DocumentTypes []string `json:"document_types,omitempty" yaml:"document_types"`
	Jurisdictions []string `json:"jurisdictions,omitempty" yaml:"jurisdictions"`
	Message       string   `json:"message,omitempty" yaml:"message"`
	SuggestedFix  string   `json:"suggested_fix,omitempty" yaml:"suggested_fix"`
	Section       string   `json:"section,omitempty" yaml:"section"`
	URI           string   `json:"uri,omitempty" yaml:"uri"`
}

// Framework describes a framework and its registered rule count
type Framework struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	Jurisdictions []string `json:"jurisdictions,omitempty"`
	URI           string   `json:"uri,omitempty"`
	Rules         int      `json:"rules"`
}

// ListOptions contains common list options
type ListOptions struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// Page is one page of a paginated list
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Rules    int    `json:"rules"`
}
