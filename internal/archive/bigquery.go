package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// RowInserter streams rows into a table
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQueryArchiver appends one summary row per report to a BigQuery table
type BigQueryArchiver struct {
	inserter RowInserter
	close    func() error
	table    string
}

// NewBigQueryArchiver creates an archiver from cfg
func NewBigQueryArchiver(ctx context.Context, cfg config.ArchiveConfig) (*BigQueryArchiver, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	table := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable)
	a := NewBigQueryArchiverWithInserter(table.Inserter(), fmt.Sprintf("%s.%s.%s", cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable))
	a.close = client.Close
	return a, nil
}

// NewBigQueryArchiverWithInserter creates an archiver over an existing inserter
func NewBigQueryArchiverWithInserter(inserter RowInserter, table string) *BigQueryArchiver {
	return &BigQueryArchiver{inserter: inserter, table: table}
}

// reportRow is the summary of one report as stored in BigQuery
type reportRow struct {
	report *compliance.Prediction
}

// Save implements bigquery.ValueSaver. The report id doubles as insert id
// so retried inserts are deduplicated.
func (r reportRow) Save() (map[string]bigquery.Value, string, error) {
	p := r.report

	critical := 0
	for _, rec := range p.Recommendations {
		if rec.Priority == recommendation.PriorityCritical {
			critical++
		}
	}
	nonCompliant := 0
	for _, d := range p.Documents {
		if !d.IsCompliant {
			nonCompliant++
		}
	}

	return map[string]bigquery.Value{
		"report_id":                p.ID,
		"organization_id":          p.OrganizationID,
		"model":                    p.Model,
		"current_compliance":       p.CurrentCompliance,
		"predicted_compliance":     p.PredictedCompliance,
		"high_risk_areas":          len(p.HighRiskAreas),
		"recommendations":          len(p.Recommendations),
		"critical_recommendations": critical,
		"documents":                len(p.Documents),
		"non_compliant_documents":  nonCompliant,
		"upcoming_changes":         len(p.UpcomingChanges),
		"estimated_cost":           p.CostEstimate.Total,
		"currency":                 p.CostEstimate.Currency,
		"roi":                      p.CostEstimate.ROI,
		"generated_at":             p.GeneratedAt,
	}, p.ID, nil
}

// Archive implements compliance.Archiver
func (a *BigQueryArchiver) Archive(ctx context.Context, report *compliance.Prediction) error {
	if err := a.inserter.Put(ctx, reportRow{report: report}); err != nil {
		return errors.ArchiveError("bigquery:"+a.table, err)
	}
	return nil
}

// Close releases the BigQuery client
func (a *BigQueryArchiver) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
