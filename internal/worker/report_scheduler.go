package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/metrics"
)

// ReportGenerator builds the stored report for one organization
type ReportGenerator interface {
	GenerateReportForOrganization(ctx context.Context, organizationID string, predictive bool) (*compliance.Prediction, error)
}

// ChangeRefresher reloads the regulatory change feed
type ChangeRefresher interface {
	Refresh(ctx context.Context) (bool, error)
}

const orgPageSize = 100

// ReportScheduler periodically regenerates the report of every organization
type ReportScheduler struct {
	generator  ReportGenerator
	orgRepo    organization.Repository
	refresher  ChangeRefresher
	schedule   string
	predictive bool
	logger     *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running sync.Mutex
}

// NewReportScheduler creates a new report scheduler. refresher may be nil.
func NewReportScheduler(
	generator ReportGenerator,
	orgRepo organization.Repository,
	refresher ChangeRefresher,
	schedule string,
	predictive bool,
	log *logger.Logger,
) *ReportScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportScheduler{
		generator:  generator,
		orgRepo:    orgRepo,
		refresher:  refresher,
		schedule:   schedule,
		predictive: predictive,
		logger:     log.Component("report-scheduler"),
	}
}

// Start registers the cron entry and starts the scheduler
func (s *ReportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("report scheduler is already running")
	}

	c := cron.New()
	runCtx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron, s.cancel = c, cancel

	s.logger.WithFields(map[string]interface{}{
		"schedule":   s.schedule,
		"predictive": s.predictive,
	}).Info("Report scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (s *ReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.cron, s.cancel = nil, nil

	s.logger.Info("Report scheduler stopped")
}

// IsRunning returns whether the scheduler is running
func (s *ReportScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// RunOnce performs one pass over all organizations and returns the number
// of reports generated. Overlapping passes are skipped.
func (s *ReportScheduler) RunOnce(ctx context.Context) int {
	if !s.running.TryLock() {
		s.logger.Warn("Previous report pass still running, skipping")
		return 0
	}
	defer s.running.Unlock()

	start := time.Now()
	s.logger.Info("Starting scheduled report generation")

	if s.refresher != nil {
		if _, err := s.refresher.Refresh(ctx); err != nil {
			s.logger.ErrorWithErr(err, "Failed to refresh regulatory changes")
		}
	}

	generated, failed := 0, 0
	for offset := 0; ; offset += orgPageSize {
		orgs, err := s.orgRepo.List(ctx, orgPageSize, offset)
		if err != nil {
			s.logger.ErrorWithErr(err, "Failed to list organizations for scheduled reports")
			break
		}

		for _, org := range orgs {
			if ctx.Err() != nil {
				s.logger.Info("Scheduled report generation cancelled")
				return generated
			}
			if _, err := s.generator.GenerateReportForOrganization(ctx, org.ID, s.predictive); err != nil {
				failed++
				metrics.RecordScheduledReport(false)
				s.logger.WithFields(map[string]interface{}{
					"organization_id": org.ID,
				}).ErrorWithErr(err, "Failed to generate scheduled report")
				continue
			}
			generated++
			metrics.RecordScheduledReport(true)
		}

		if len(orgs) < orgPageSize {
			break
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"generated": generated,
		"failed":    failed,
		"duration":  time.Since(start).String(),
	}).Info("Completed scheduled report generation")

	return generated
}
