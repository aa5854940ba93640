package compliance

import (
	"context"
)

// Repository persists validation history and organization reports
type Repository interface {
	// Validation results
	SaveResult(ctx context.Context, result *ValidationResult) error
	ListResults(ctx context.Context, documentID string, limit int) ([]*ValidationResult, error)

	// Reports
	SaveReport(ctx context.Context, report *Prediction) error
	GetReport(ctx context.Context, id string) (*Prediction, error)
	ListReports(ctx context.Context, organizationID string, limit int) ([]*Prediction, error)
}
