package compliance

import (
	"context"

	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
)

// Service defines the compliance engine interface
type Service interface {
	// Lifecycle
	Initialize(ctx context.Context) error
	Close()

	// Rules
	RegisterRule(rule Rule) bool
	AddRule(rule Rule) bool
	UnregisterRule(id string) bool
	GetAllRules() []Rule
	GetRulesByFramework(framework string) []Rule

	// Validation
	ValidateDocument(ctx context.Context, doc *document.Document, opts ValidationOptions) (*ValidationResult, error)

	// Reporting
	GenerateComplianceReport(ctx context.Context, org *organization.Organization, docs []*document.Document) (*Prediction, error)
	PredictCompliance(ctx context.Context, org *organization.Organization, docs []*document.Document) (*Prediction, error)
}

// Tracker reports upcoming regulatory changes for a set of jurisdictions
type Tracker interface {
	GetUpcomingChanges(ctx context.Context, jurisdictions []string) ([]regulatory.Change, error)
}

// Predictor turns upcoming regulatory changes into predicted risk areas
type Predictor interface {
	PredictImpacts(ctx context.Context, params regulatory.ImpactParams) ([]RiskArea, error)
}

// Archiver stores generated reports outside the primary database
type Archiver interface {
	Archive(ctx context.Context, report *Prediction) error
}
