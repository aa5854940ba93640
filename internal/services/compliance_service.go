package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/cost"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/metrics"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
)

// MaxPredictedCompliance caps the forecast score of a report
const MaxPredictedCompliance = 0.99

// ComplianceConfig tunes the compliance engine
type ComplianceConfig struct {
	// LoadBuiltins registers the compiled-in rules during Initialize
	LoadBuiltins bool
	// RulesDir holds HCL/YAML rule packs; empty disables pack loading
	RulesDir string
	// ReportWorkers bounds concurrent document validation inside a report
	ReportWorkers int
	// DefaultStrict is the strict mode used for event-triggered validation
	DefaultStrict bool
}

// ComplianceOption configures optional collaborators of the service
type ComplianceOption func(*ComplianceService)

// WithComplianceRepository persists validation results and reports
func WithComplianceRepository(repo compliance.Repository) ComplianceOption {
	return func(s *ComplianceService) { s.repo = repo }
}

// WithDocumentRepository lets the engine load documents by organization
func WithDocumentRepository(repo document.Repository) ComplianceOption {
	return func(s *ComplianceService) { s.docRepo = repo }
}

// WithOrganizationRepository lets the engine load organizations by id
func WithOrganizationRepository(repo organization.Repository) ComplianceOption {
	return func(s *ComplianceService) { s.orgRepo = repo }
}

// WithTracker sets the source of upcoming regulatory changes
func WithTracker(t compliance.Tracker) ComplianceOption {
	return func(s *ComplianceService) { s.tracker = t }
}

// WithPredictor sets the regulatory impact predictor
func WithPredictor(p compliance.Predictor) ComplianceOption {
	return func(s *ComplianceService) { s.predictor = p }
}

// WithArchiver sets where generated reports are archived
func WithArchiver(a compliance.Archiver) ComplianceOption {
	return func(s *ComplianceService) { s.archiver = a }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) ComplianceOption {
	return func(s *ComplianceService) { s.now = now }
}

// WithRuleLoader overrides the rule pack loader
func WithRuleLoader(l *rules.Loader) ComplianceOption {
	return func(s *ComplianceService) { s.loader = l }
}

// ComplianceService implements compliance.Service
type ComplianceService struct {
	registry *RuleRegistry
	bus      *events.Bus
	logger   *logger.Logger
	cfg      ComplianceConfig

	repo      compliance.Repository
	docRepo   document.Repository
	orgRepo   organization.Repository
	tracker   compliance.Tracker
	predictor compliance.Predictor
	archiver  compliance.Archiver
	loader    *rules.Loader
	now       func() time.Time

	recommender *RecommendationEngine
	assessor    *RiskAssessor
	costs       *CostEstimator

	mu          sync.Mutex
	initialized bool
	subs        []*events.Subscription
	packRules   map[string]struct{}
}

var _ compliance.Service = (*ComplianceService)(nil)

// NewComplianceService creates the compliance engine. The registry, bus and
// logger are shared with the caller; nil values get private defaults.
func NewComplianceService(
	registry *RuleRegistry,
	bus *events.Bus,
	log *logger.Logger,
	cfg ComplianceConfig,
	opts ...ComplianceOption,
) *ComplianceService {
	if log == nil {
		log = logger.Nop()
	}
	if registry == nil {
		registry = NewRuleRegistry(log)
	}
	if bus == nil {
		bus = events.NewBus(0, log)
	}
	if cfg.ReportWorkers <= 0 {
		cfg.ReportWorkers = 1
	}

	s := &ComplianceService{
		registry:    registry,
		bus:         bus,
		logger:      log.Component("compliance"),
		cfg:         cfg,
		now:         time.Now,
		recommender: NewRecommendationEngine(),
		assessor:    NewRiskAssessor(),
		costs:       NewCostEstimator(),
		packRules:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = rules.NewLoader(nil, log)
	}
	return s
}

// Initialize loads rules and subscribes to lifecycle events. It is
// idempotent; a failed attempt may be retried.
func (s *ComplianceService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if s.cfg.LoadBuiltins {
		// A retry after a failed pack load finds the built-ins in place.
		for _, r := range rules.Builtin() {
			s.registry.Add(r)
		}
	}

	if s.cfg.RulesDir != "" {
		if err := s.loadRulePacks(); err != nil {
			return err
		}
	}

	s.subs = []*events.Subscription{
		s.bus.On(events.DocumentSaved, s.onDocument),
		s.bus.On(events.TemplatesRendered, s.onDocument),
		s.bus.On(events.RegulationsUpdated, s.onRegulationsUpdated),
		s.bus.On(events.OrganizationUpdated, s.onOrganizationUpdated),
	}
	s.initialized = true

	s.logger.WithFields(map[string]interface{}{
		"rules":      s.registry.Len(),
		"frameworks": s.registry.Frameworks(),
	}).Info("Compliance engine initialized")

	return nil
}

// Close unsubscribes from lifecycle events. Registered rules are kept.
func (s *ComplianceService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		s.bus.Off(sub)
	}
	s.subs = nil
	s.initialized = false
	s.logger.Debug("Compliance engine closed")
}

func (s *ComplianceService) isInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// ReloadRules re-reads the rule pack directory. Pack rules that disappeared
// are unregistered; built-in and host rules are untouched.
func (s *ComplianceService) ReloadRules() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.RulesDir == "" {
		return nil
	}
	return s.loadRulePacks()
}

// loadRulePacks must be called with s.mu held
func (s *ComplianceService) loadRulePacks() error {
	loaded, err := s.loader.LoadDir(s.cfg.RulesDir)
	if err != nil {
		return fmt.Errorf("failed to load rule packs: %w", err)
	}

	current := make(map[string]struct{}, len(loaded))
	for _, r := range loaded {
		s.registry.Register(r)
		current[r.ID()] = struct{}{}
	}
	for id := range s.packRules {
		if _, ok := current[id]; !ok {
			s.registry.Unregister(id)
		}
	}
	s.packRules = current
	return nil
}

// Registry exposes the rule registry
func (s *ComplianceService) Registry() *RuleRegistry {
	return s.registry
}

// RegisterRule adds or replaces a rule and reports whether one was replaced
func (s *ComplianceService) RegisterRule(rule compliance.Rule) bool {
	return s.registry.Register(rule)
}

// AddRule registers a rule whose id is not taken yet. It returns false
// and leaves the registered rule alone on a duplicate id.
func (s *ComplianceService) AddRule(rule compliance.Rule) bool {
	return s.registry.Add(rule)
}

// UnregisterRule removes a rule by id
func (s *ComplianceService) UnregisterRule(id string) bool {
	return s.registry.Unregister(id)
}

// GetAllRules returns every rule in registration order
func (s *ComplianceService) GetAllRules() []compliance.Rule {
	return s.registry.All()
}

// GetRulesByFramework returns the rules of one framework
func (s *ComplianceService) GetRulesByFramework(framework string) []compliance.Rule {
	return s.registry.ByFramework(framework)
}

// ValidateDocument applies the selected rules to doc and scores the result
func (s *ComplianceService) ValidateDocument(ctx context.Context, doc *document.Document, opts compliance.ValidationOptions) (*compliance.ValidationResult, error) {
	if !s.isInitialized() {
		return nil, errors.ErrNotInitialized
	}
	if doc == nil {
		return nil, errors.BadRequest("document is required")
	}

	start := time.Now()
	now := s.now()

	var issues []compliance.Issue
	for _, rule := range s.registry.Select(opts.Frameworks) {
		issues = append(issues, s.evaluate(rule, doc, opts)...)
	}
	if issues == nil {
		issues = []compliance.Issue{}
	}

	result := &compliance.ValidationResult{
		ID:           uuid.New().String(),
		DocumentID:   doc.ID,
		DocumentType: doc.Type,
		IsCompliant:  IsCompliant(issues, opts.StrictMode),
		Score:        ComplianceScore(issues),
		Issues:       issues,
		ValidatedAt:  now,
	}
	if opts.IncludeRecommendations {
		result.Recommendations = s.recommender.Generate(issues, now)
	}
	if opts.IncludeRiskAssessment {
		result.RiskAreas = s.assessor.Assess(issues, now)
	}

	metrics.RecordValidation(result.IsCompliant, result.Score, time.Since(start))
	for _, issue := range issues {
		metrics.RecordIssue(string(issue.Severity))
	}

	s.bus.Emit(events.ComplianceValidated, events.ValidatedPayload{
		DocumentID:   doc.ID,
		DocumentType: doc.Type,
		IsCompliant:  result.IsCompliant,
		Score:        result.Score,
		IssueCount:   len(issues),
		Timestamp:    now,
	})

	if s.repo != nil && doc.ID != "" {
		if err := s.repo.SaveResult(ctx, result); err != nil {
			s.logger.WithError(err).With("document_id", doc.ID).Warn("Failed to persist validation result")
		}
	}

	return result, nil
}

// evaluate runs one rule. Errors and panics become a single warning issue.
func (s *ComplianceService) evaluate(rule compliance.Rule, doc *document.Document, opts compliance.ValidationOptions) (issues []compliance.Issue) {
	defer func() {
		if r := recover(); r != nil {
			issues = []compliance.Issue{s.ruleFailure(rule, fmt.Errorf("panic: %v", r))}
		}
	}()

	found, err := rule.Validate(doc, opts)
	if err != nil {
		return []compliance.Issue{s.ruleFailure(rule, err)}
	}
	return found
}

func (s *ComplianceService) ruleFailure(rule compliance.Rule, err error) compliance.Issue {
	metrics.RecordRuleFailure(rule.ID())
	s.logger.WithError(err).With("rule_id", rule.ID()).Warn("Rule evaluation failed")

	return compliance.Issue{
		ID:       "rule-error-" + rule.ID(),
		Severity: compliance.SeverityWarning,
		Message:  fmt.Sprintf("Rule %q (%s) failed: %v", rule.Name(), rule.ID(), err),
		RegulatoryReference: &compliance.RegulatoryReference{
			Framework:   rule.Framework(),
			Description: rule.Description(),
		},
	}
}

// GenerateComplianceReport validates every document of org and aggregates
// the results under the standard cost model
func (s *ComplianceService) GenerateComplianceReport(ctx context.Context, org *organization.Organization, docs []*document.Document) (*compliance.Prediction, error) {
	start := time.Now()

	report, err := s.buildReport(ctx, org, docs, cost.StandardModel)
	if err != nil {
		return nil, err
	}

	s.finishReport(ctx, report, start)
	return report, nil
}

// PredictCompliance is the predictive variant of the report: upcoming
// regulatory changes are fed to the predictor and the predicted risk areas
// join the report, which is priced with the predictive cost model.
// Tracker or predictor failures degrade to a plain predictive report.
func (s *ComplianceService) PredictCompliance(ctx context.Context, org *organization.Organization, docs []*document.Document) (*compliance.Prediction, error) {
	start := time.Now()

	report, err := s.buildReport(ctx, org, docs, cost.PredictiveModel)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("organization_id", org.ID)

	var changes []regulatory.Change
	if s.tracker != nil {
		changes, err = s.tracker.GetUpcomingChanges(ctx, org.Jurisdictions)
		if err != nil {
			log.WithError(err).Warn("Failed to fetch upcoming regulatory changes")
			changes = nil
		}
	}
	report.UpcomingChanges = changes

	if s.predictor != nil && len(changes) > 0 {
		now := s.now()
		predicted, err := s.predictor.PredictImpacts(ctx, regulatory.ImpactParams{
			OrganizationID:    org.ID,
			Industry:          org.Industry,
			Size:              org.Size,
			Frameworks:        org.RegulatoryFrameworks,
			Changes:           changes,
			CurrentCompliance: report.CurrentCompliance,
			Now:               now,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to predict regulatory impact")
		} else if len(predicted) > 0 {
			for i := range predicted {
				predicted[i].RiskScore = math.Min(compliance.MaxRiskScore, predicted[i].RiskScore)
			}
			report.HighRiskAreas = sortRiskAreas(append(report.HighRiskAreas, predicted...))
			report.Timeline = BuildTimeline(report.HighRiskAreas, report.Recommendations, now)
		}
	}

	s.finishReport(ctx, report, start)
	return report, nil
}

// GenerateReportForOrganization loads an organization and its documents from
// the configured repositories and builds a standard or predictive report
func (s *ComplianceService) GenerateReportForOrganization(ctx context.Context, organizationID string, predictive bool) (*compliance.Prediction, error) {
	if s.orgRepo == nil || s.docRepo == nil {
		return nil, errors.Internal("organization and document sources are not configured", nil)
	}

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	if predictive {
		return s.PredictCompliance(ctx, org, docs)
	}
	return s.GenerateComplianceReport(ctx, org, docs)
}

func (s *ComplianceService) buildReport(ctx context.Context, org *organization.Organization, docs []*document.Document, model cost.Model) (*compliance.Prediction, error) {
	if !s.isInitialized() {
		return nil, errors.ErrNotInitialized
	}
	if org == nil {
		return nil, errors.BadRequest("organization is required")
	}
	if len(docs) == 0 {
		return nil, errors.ValidationError("organization has no documents to report on", map[string]string{
			"organization_id": org.ID,
		})
	}

	opts := compliance.ValidationOptions{
		Organization:           org.ID,
		Jurisdictions:          org.Jurisdictions,
		Frameworks:             org.RegulatoryFrameworks,
		IncludeRecommendations: true,
		IncludeRiskAssessment:  true,
	}

	results, err := s.validateAll(ctx, docs, opts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		sum   float64
		areas []compliance.RiskArea
		recs  []recommendation.Recommendation
	)
	summaries := make([]compliance.DocumentSummary, 0, len(results))
	for i, res := range results {
		sum += res.Score
		areas = append(areas, res.RiskAreas...)
		recs = append(recs, res.Recommendations...)
		summaries = append(summaries, compliance.DocumentSummary{
			DocumentID:  docs[i].ID,
			Title:       docs[i].Title,
			Score:       res.Score,
			IsCompliant: res.IsCompliant,
			IssueCount:  len(res.Issues),
		})
	}

	current := sum / float64(len(results))
	areas = sortRiskAreas(areas)
	merged := AggregateRecommendations(recs)

	return &compliance.Prediction{
		ID:                  uuid.New().String(),
		OrganizationID:      org.ID,
		Model:               model.Name,
		CurrentCompliance:   current,
		PredictedCompliance: ForecastCompliance(current, merged),
		HighRiskAreas:       areas,
		Recommendations:     merged,
		Timeline:            BuildTimeline(areas, merged, now),
		CostEstimate:        s.costs.Estimate(merged, org.Size, model),
		Documents:           summaries,
		GeneratedAt:         now,
	}, nil
}

// validateAll validates docs on a bounded worker pool. Results are indexed
// by document position so aggregation does not depend on completion order.
func (s *ComplianceService) validateAll(ctx context.Context, docs []*document.Document, opts compliance.ValidationOptions) ([]*compliance.ValidationResult, error) {
	results := make([]*compliance.ValidationResult, len(docs))
	errs := make([]error, len(docs))

	workers := s.cfg.ReportWorkers
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = s.ValidateDocument(ctx, docs[i], opts)
			}
		}()
	}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			close(jobs)
			wg.Wait()
			return nil, err
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// finishReport records, persists, archives and announces a finished report
func (s *ComplianceService) finishReport(ctx context.Context, report *compliance.Prediction, start time.Time) {
	metrics.RecordReport(report.Model, time.Since(start))

	log := s.logger.WithFields(map[string]interface{}{
		"report_id":       report.ID,
		"organization_id": report.OrganizationID,
		"model":           report.Model,
	})

	if s.repo != nil {
		if err := s.repo.SaveReport(ctx, report); err != nil {
			log.WithError(err).Warn("Failed to persist compliance report")
		}
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, report); err != nil {
			metrics.RecordArchiveFailure(report.Model)
			log.WithError(err).Warn("Failed to archive compliance report")
		}
	}

	s.bus.Emit(events.CompliancePredicted, events.PredictedPayload{
		ReportID:            report.ID,
		OrganizationID:      report.OrganizationID,
		Model:               report.Model,
		CurrentCompliance:   report.CurrentCompliance,
		PredictedCompliance: report.PredictedCompliance,
		HighRiskAreas:       len(report.HighRiskAreas),
		Timestamp:           report.GeneratedAt,
	})

	log.WithFields(map[string]interface{}{
		"current":   report.CurrentCompliance,
		"predicted": report.PredictedCompliance,
	}).Info("Compliance report generated")
}

// ForecastCompliance forecasts the score after the recommendations are
// carried out: the gap to 1 closes in proportion to their total impact
func ForecastCompliance(current float64, recs []recommendation.Recommendation) float64 {
	closed := math.Min(1, recommendation.TotalImpact(recs))
	return math.Min(MaxPredictedCompliance, current+(1-current)*closed)
}

// sortRiskAreas orders areas by risk score, highest first, keeping ties stable
func sortRiskAreas(areas []compliance.RiskArea) []compliance.RiskArea {
	if areas == nil {
		return []compliance.RiskArea{}
	}
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].RiskScore > areas[j].RiskScore
	})
	return areas
}

// Event handlers

func (s *ComplianceService) onDocument(ev events.Event) {
	var doc *document.Document
	switch p := ev.Payload.(type) {
	case events.DocumentPayload:
		doc = p.Document
	case *document.Document:
		doc = p
	}
	if doc == nil {
		s.logger.Warnf("ignoring %s event without a document", ev.Name)
		return
	}

	s.logger.Debugf("validating document %s after %s", doc.ID, ev.Name)
	_, err := s.ValidateDocument(context.Background(), doc, compliance.ValidationOptions{
		Organization:           doc.OrganizationID,
		StrictMode:             s.cfg.DefaultStrict,
		IncludeRecommendations: true,
		IncludeRiskAssessment:  true,
	})
	if err != nil {
		s.logger.WithError(err).With("document_id", doc.ID).Warn("Event-triggered validation failed")
	}
}

func (s *ComplianceService) onRegulationsUpdated(ev events.Event) {
	if err := s.ReloadRules(); err != nil {
		s.logger.ErrorWithErr(err, "Failed to reload rule packs after regulations update")
		return
	}
	s.logger.With("rules", s.registry.Len()).Info("Rule packs reloaded after regulations update")
}

func (s *ComplianceService) onOrganizationUpdated(ev events.Event) {
	var orgID string
	switch p := ev.Payload.(type) {
	case events.OrganizationPayload:
		orgID = p.OrganizationID
	case string:
		orgID = p
	}
	if orgID == "" || s.orgRepo == nil || s.docRepo == nil {
		return
	}

	if _, err := s.GenerateReportForOrganization(context.Background(), orgID, false); err != nil {
		s.logger.WithError(err).With("organization_id", orgID).Warn("Failed to regenerate report after organization update")
	}
}
