package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// ComplianceRepository implements compliance.Repository. Results and
// reports are stored as JSON payloads next to a few indexed columns.
type ComplianceRepository struct {
	db *sql.DB
}

// NewComplianceRepository creates a new compliance repository
func NewComplianceRepository(db *sql.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// SaveResult stores a validation result
func (r *ComplianceRepository) SaveResult(ctx context.Context, result *compliance.ValidationResult) error {
	defer observe("insert", "validation_results", time.Now())

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode validation result: %w", err)
	}

	query := `
		INSERT INTO validation_results (id, document_id, document_type, is_compliant, score, issue_count, payload, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ID, result.DocumentID, result.DocumentType, result.IsCompliant, result.Score,
		len(result.Issues), string(payload), result.ValidatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to save validation result", err)
	}
	return nil
}

// ListResults returns the validation history of a document, newest first.
// A limit of zero or less returns every result.
func (r *ComplianceRepository) ListResults(ctx context.Context, documentID string, limit int) ([]*compliance.ValidationResult, error) {
	defer observe("select", "validation_results", time.Now())

	query := `SELECT payload FROM validation_results WHERE document_id = $1 ORDER BY validated_at DESC, id`
	args := []interface{}{documentID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to list validation results", err)
	}
	defer rows.Close()

	results := make([]*compliance.ValidationResult, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.DatabaseError("failed to scan validation result", err)
		}
		res := &compliance.ValidationResult{}
		if err := json.Unmarshal([]byte(payload), res); err != nil {
			return nil, fmt.Errorf("failed to decode validation result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// SaveReport stores an organization report
func (r *ComplianceRepository) SaveReport(ctx context.Context, report *compliance.Prediction) error {
	defer observe("insert", "compliance_reports", time.Now())

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode compliance report: %w", err)
	}

	query := `
		INSERT INTO compliance_reports (id, organization_id, model, current_compliance, predicted_compliance, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		report.ID, report.OrganizationID, report.Model, report.CurrentCompliance,
		report.PredictedCompliance, string(payload), report.GeneratedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to save compliance report", err)
	}
	return nil
}

// GetReport retrieves a report by ID
func (r *ComplianceRepository) GetReport(ctx context.Context, id string) (*compliance.Prediction, error) {
	defer observe("select", "compliance_reports", time.Now())

	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM compliance_reports WHERE id = $1`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Report")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get compliance report", err)
	}

	report := &compliance.Prediction{}
	if err := json.Unmarshal([]byte(payload), report); err != nil {
		return nil, fmt.Errorf("failed to decode compliance report: %w", err)
	}
	return report, nil
}

// ListReports returns reports newest first, optionally for one organization.
// A limit of zero or less returns every report.
func (r *ComplianceRepository) ListReports(ctx context.Context, organizationID string, limit int) ([]*compliance.Prediction, error) {
	defer observe("select", "compliance_reports", time.Now())

	query := `SELECT payload FROM compliance_reports`
	var args []interface{}
	if organizationID != "" {
		args = append(args, organizationID)
		query += ` WHERE organization_id = $1`
	}
	query += ` ORDER BY generated_at DESC, id`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("failed to list compliance reports", err)
	}
	defer rows.Close()

	reports := make([]*compliance.Prediction, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.DatabaseError("failed to scan compliance report", err)
		}
		report := &compliance.Prediction{}
		if err := json.Unmarshal([]byte(payload), report); err != nil {
			return nil, fmt.Errorf("failed to decode compliance report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
