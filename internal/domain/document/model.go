package document

import "time"

// Document is a legal document submitted for compliance validation
type Document struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id,omitempty"`
	Title          string            `json:"title" validate:"required,max=512"`
	Content        string            `json:"content"`
	Type           string            `json:"type" validate:"required"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Authors        []string          `json:"authors,omitempty"`
	Status         string            `json:"status,omitempty"`
	Version        int               `json:"version"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at,omitempty"`
}

// Document types
const (
	TypeContract        = "contract"
	TypePrivacyPolicy   = "privacy_policy"
	TypeTermsOfService  = "terms_of_service"
	TypeDataProcessing  = "data_processing_agreement"
	TypeEmployment      = "employment_agreement"
	TypeNDA             = "nda"
	TypeHealthPolicy    = "health_policy"
	TypeFinancialReport = "financial_report"
	TypeOther           = "other"
)

// Document status
const (
	StatusDraft    = "draft"
	StatusReview   = "review"
	StatusApproved = "approved"
	StatusSigned   = "signed"
	StatusArchived = "archived"
)

// Filter contains document filtering options
type Filter struct {
	OrganizationID string
	Type           string
	Status         string
}
