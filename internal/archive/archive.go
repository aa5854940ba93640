// Package archive copies generated compliance reports to object storage and
// analytics sinks.
package archive

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path"

	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

// ObjectKey is where a report is stored in a bucket:
// <prefix>/<organization>/<yyyy>/<mm>/<report id>.json
func ObjectKey(prefix string, report *compliance.Prediction) string {
	org := report.OrganizationID
	if org == "" {
		org = "_unassigned"
	}
	at := report.GeneratedAt.UTC()
	return path.Join(prefix, org, at.Format("2006"), at.Format("01"), report.ID+".json")
}

func encodeReport(report *compliance.Prediction) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}
	return data, nil
}

// Multi archives every report to all of its targets. Every target is
// attempted; failures are joined.
type Multi []compliance.Archiver

// Archive implements compliance.Archiver
func (m Multi) Archive(ctx context.Context, report *compliance.Prediction) error {
	var errs []error
	for _, a := range m {
		if err := a.Archive(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Closer releases clients opened by New
type Closer func() error

// New builds the archivers configured in cfg. It returns a nil archiver
// when nothing is configured.
func New(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) (compliance.Archiver, Closer, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("archive")

	var (
		targets Multi
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return stderrors.Join(errs...)
	}

	switch cfg.Backend {
	case "s3":
		a, err := NewS3Archiver(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, a)
	case "gcs":
		a, err := NewGCSArchiver(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, a)
		closers = append(closers, a.Close)
	}

	if cfg.BigQueryDataset != "" {
		a, err := NewBigQueryArchiver(ctx, cfg)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		targets = append(targets, a)
		closers = append(closers, a.Close)
	}

	if len(targets) == 0 {
		return nil, closeAll, nil
	}

	log.WithFields(map[string]interface{}{
		"backend":  cfg.Backend,
		"bucket":   cfg.Bucket,
		"bigquery": cfg.BigQueryDataset != "",
	}).Info("Report archiving enabled")

	if len(targets) == 1 {
		return targets[0], closeAll, nil
	}
	return targets, closeAll, nil
}
