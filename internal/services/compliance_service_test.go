package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/cost"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
	"github.com/pratik-mahalle/lexaudit/internal/testutil"
)

func newTestService(t *testing.T, cfg ComplianceConfig, opts ...ComplianceOption) (*ComplianceService, *events.Bus) {
	t.Helper()
	log := testutil.Logger()
	bus := events.NewBus(64, log)

	opts = append([]ComplianceOption{WithClock(testutil.Clock())}, opts...)
	svc := NewComplianceService(NewRuleRegistry(log), bus, log, cfg, opts...)
	require.NoError(t, svc.Initialize(context.Background()))

	t.Cleanup(func() {
		svc.Close()
		bus.Close()
	})
	return svc, bus
}

// fixedRule emits one issue per severity, each attributed to the framework
func fixedRule(id, framework string, sevs ...compliance.Severity) *compliance.FuncRule {
	info := compliance.RuleInfo{
		RuleID:        id,
		RuleName:      id,
		RuleFramework: framework,
		RuleSeverity:  compliance.SeverityWarning,
	}
	return compliance.NewFuncRule(info, func(doc *document.Document, opts compliance.ValidationOptions) ([]compliance.Issue, error) {
		issues := make([]compliance.Issue, 0, len(sevs))
		for i, s := range sevs {
			issues = append(issues, compliance.Issue{
				ID:                  fmt.Sprintf("%s-%d", id, i),
				Severity:            s,
				Message:             fmt.Sprintf("%s %s finding %d", framework, s, i),
				RegulatoryReference: info.Reference(""),
			})
		}
		return issues, nil
	})
}

func testDoc(id string) *document.Document {
	return &document.Document{
		ID:             id,
		OrganizationID: "org-1",
		Title:          "Document " + id,
		Type:           document.TypeContract,
		Content:        "This agreement is made between the parties.",
	}
}

func testOrg() *organization.Organization {
	return &organization.Organization{
		ID:            "org-1",
		Name:          "Acme",
		Size:          50,
		Jurisdictions: []string{"EU"},
	}
}

func TestComplianceService_NotInitialized(t *testing.T) {
	svc := NewComplianceService(nil, nil, testutil.Logger(), ComplianceConfig{})

	_, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = svc.GenerateComplianceReport(context.Background(), testOrg(), []*document.Document{testDoc("d1")})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = svc.PredictCompliance(context.Background(), testOrg(), []*document.Document{testDoc("d1")})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestComplianceService_InitializeIsIdempotent(t *testing.T) {
	svc, bus := newTestService(t, ComplianceConfig{LoadBuiltins: true})
	count := len(svc.GetAllRules())
	require.Greater(t, count, 0)

	require.NoError(t, svc.Initialize(context.Background()))
	assert.Len(t, svc.GetAllRules(), count)
	assert.Equal(t, 1, bus.Count(events.DocumentSaved))
}

func TestComplianceService_ValidateDocument_Scoring(t *testing.T) {
	tests := []struct {
		name          string
		sevs          []compliance.Severity
		wantScore     float64
		wantStrict    bool
		wantNonStrict bool
	}{
		{"no issues", nil, 1.0, true, true},
		{"critical and info", []compliance.Severity{compliance.SeverityCritical, compliance.SeverityInfo}, 0.45, false, false},
		{"warning only", []compliance.Severity{compliance.SeverityWarning}, 0.7, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, ComplianceConfig{})
			svc.RegisterRule(fixedRule("r1", "GDPR", tt.sevs...))

			strict, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{StrictMode: true})
			require.NoError(t, err)
			lax, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
			require.NoError(t, err)

			assert.InDelta(t, tt.wantScore, strict.Score, 1e-9)
			assert.InDelta(t, tt.wantScore, lax.Score, 1e-9)
			assert.Equal(t, tt.wantStrict, strict.IsCompliant)
			assert.Equal(t, tt.wantNonStrict, lax.IsCompliant)
			assert.NotNil(t, strict.Issues)
			assert.Len(t, strict.Issues, len(tt.sevs))
			assert.Equal(t, testutil.FixedTime, strict.ValidatedAt)
			assert.Equal(t, "d1", strict.DocumentID)
			assert.Equal(t, document.TypeContract, strict.DocumentType)
		})
	}
}

func TestComplianceService_ValidateDocument_NilDocument(t *testing.T) {
	svc, _ := newTestService(t, ComplianceConfig{})

	_, err := svc.ValidateDocument(context.Background(), nil, compliance.ValidationOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBadRequest, errors.As(err).Code)
}

func TestComplianceService_ValidateDocument_RuleFailure(t *testing.T) {
	info := compliance.RuleInfo{RuleID: "flaky", RuleName: "Flaky", RuleFramework: "SOX", RuleSeverity: compliance.SeverityError}

	tests := []struct {
		name string
		fn   compliance.ValidateFunc
	}{
		{
			name: "returns error",
			fn: func(*document.Document, compliance.ValidationOptions) ([]compliance.Issue, error) {
				return nil, fmt.Errorf("lookup table unavailable")
			},
		},
		{
			name: "panics",
			fn: func(*document.Document, compliance.ValidationOptions) ([]compliance.Issue, error) {
				panic("index out of range")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, ComplianceConfig{})
			svc.RegisterRule(compliance.NewFuncRule(info, tt.fn))
			svc.RegisterRule(fixedRule("steady", "GDPR", compliance.SeverityInfo))

			res, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
			require.NoError(t, err)
			require.Len(t, res.Issues, 2)

			failure := res.Issues[0]
			assert.Equal(t, "rule-error-flaky", failure.ID)
			assert.Equal(t, compliance.SeverityWarning, failure.Severity)
			require.NotNil(t, failure.RegulatoryReference)
			assert.Equal(t, "SOX", failure.RegulatoryReference.Framework)

			assert.Equal(t, "steady-0", res.Issues[1].ID)
		})
	}
}

func TestComplianceService_ValidateDocument_FrameworkSelection(t *testing.T) {
	svc, _ := newTestService(t, ComplianceConfig{})
	svc.RegisterRule(fixedRule("g1", "GDPR", compliance.SeverityError))
	svc.RegisterRule(fixedRule("h1", "HIPAA", compliance.SeverityCritical))
	svc.RegisterRule(fixedRule("g2", "GDPR", compliance.SeverityWarning))

	tests := []struct {
		frameworks []string
		wantIDs    []string
	}{
		{nil, []string{"g1-0", "h1-0", "g2-0"}},
		{[]string{"GDPR"}, []string{"g1-0", "g2-0"}},
		{[]string{"HIPAA", "GDPR"}, []string{"h1-0", "g1-0", "g2-0"}},
		{[]string{"PCI"}, nil},
	}

	for _, tt := range tests {
		res, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{Frameworks: tt.frameworks})
		require.NoError(t, err)

		var ids []string
		for _, issue := range res.Issues {
			ids = append(ids, issue.ID)
		}
		assert.Equal(t, tt.wantIDs, ids, "frameworks %v", tt.frameworks)
	}
}

func TestComplianceService_ValidateDocument_Derivations(t *testing.T) {
	svc, _ := newTestService(t, ComplianceConfig{})
	svc.RegisterRule(fixedRule("g1", "GDPR", compliance.SeverityError))

	bare, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	require.NoError(t, err)
	assert.Empty(t, bare.Recommendations)
	assert.Empty(t, bare.RiskAreas)

	full, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{
		IncludeRecommendations: true,
		IncludeRiskAssessment:  true,
	})
	require.NoError(t, err)

	require.Len(t, full.Recommendations, 1)
	rec := full.Recommendations[0]
	assert.Equal(t, "Resolve GDPR Compliance Errors", rec.Title)
	assert.Equal(t, recommendation.PriorityHigh, rec.Priority)
	assert.Equal(t, testutil.FixedTime.AddDate(0, 0, 14), rec.Deadline)

	require.Len(t, full.RiskAreas, 1)
	assert.Equal(t, "GDPR Compliance", full.RiskAreas[0].Area)
	assert.InDelta(t, 0.6, full.RiskAreas[0].RiskScore, 1e-9)
}

func TestComplianceService_ValidateDocument_Persistence(t *testing.T) {
	repo := testutil.NewMockComplianceRepository()
	svc, _ := newTestService(t, ComplianceConfig{}, WithComplianceRepository(repo))
	svc.RegisterRule(fixedRule("g1", "GDPR", compliance.SeverityWarning))

	_, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.ResultCount())

	// Unsaved documents have no id and are not persisted
	_, err = svc.ValidateDocument(context.Background(), testDoc(""), compliance.ValidationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.ResultCount())

	repo.SaveError = testutil.ErrMock
	res, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestComplianceService_ValidateDocument_EmitsEvent(t *testing.T) {
	svc, bus := newTestService(t, ComplianceConfig{})
	svc.RegisterRule(fixedRule("g1", "GDPR", compliance.SeverityError, compliance.SeverityInfo))

	received := make(chan events.Event, 1)
	bus.On(events.ComplianceValidated, func(ev events.Event) { received <- ev })

	_, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	require.NoError(t, err)

	select {
	case ev := <-received:
		payload, ok := ev.Payload.(events.ValidatedPayload)
		require.True(t, ok)
		assert.Equal(t, "d1", payload.DocumentID)
		assert.Equal(t, 2, payload.IssueCount)
		assert.False(t, payload.IsCompliant)
		assert.InDelta(t, 0.65, payload.Score, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("compliance.validated was not emitted")
	}
}

func TestComplianceService_GenerateComplianceReport(t *testing.T) {
	repo := testutil.NewMockComplianceRepository()
	archiver := &testutil.MockArchiver{}
	svc, bus := newTestService(t, ComplianceConfig{ReportWorkers: 3},
		WithComplianceRepository(repo),
		WithArchiver(archiver),
	)

	// d-clean has no findings; the rule only fires on documents marked risky
	svc.RegisterRule(compliance.NewFuncRule(
		compliance.RuleInfo{RuleID: "risky", RuleName: "Risky", RuleFramework: "GDPR", RuleSeverity: compliance.SeverityCritical},
		func(doc *document.Document, _ compliance.ValidationOptions) ([]compliance.Issue, error) {
			if doc.Metadata["risky"] != "yes" {
				return nil, nil
			}
			return []compliance.Issue{{
				ID:                  "risky",
				Severity:            compliance.SeverityCritical,
				Message:             "risky clause",
				RegulatoryReference: &compliance.RegulatoryReference{Framework: "GDPR"},
			}}, nil
		},
	))
	svc.RegisterRule(fixedRule("ccpa", "CCPA", compliance.SeverityWarning))

	risky := testDoc("d-risky")
	risky.Metadata = map[string]string{"risky": "yes"}
	docs := []*document.Document{testDoc("d-clean"), risky}

	predicted := make(chan events.Event, 1)
	bus.On(events.CompliancePredicted, func(ev events.Event) { predicted <- ev })

	report, err := svc.GenerateComplianceReport(context.Background(), testOrg(), docs)
	require.NoError(t, err)

	// d-clean: one warning (0.7); d-risky: critical + warning (0.35)
	assert.InDelta(t, 0.525, report.CurrentCompliance, 1e-9)
	assert.Equal(t, compliance.ModelStandard, report.Model)
	assert.Equal(t, "org-1", report.OrganizationID)
	assert.Equal(t, testutil.FixedTime, report.GeneratedAt)

	require.Len(t, report.Documents, 2)
	assert.Equal(t, "d-clean", report.Documents[0].DocumentID)
	assert.Equal(t, "d-risky", report.Documents[1].DocumentID)
	assert.Equal(t, 2, report.Documents[1].IssueCount)

	for i := 1; i < len(report.HighRiskAreas); i++ {
		assert.GreaterOrEqual(t, report.HighRiskAreas[i-1].RiskScore, report.HighRiskAreas[i].RiskScore)
	}
	assert.Equal(t, "GDPR Compliance", report.HighRiskAreas[0].Area)

	titles := make(map[string]int)
	for _, r := range report.Recommendations {
		titles[r.Title]++
	}
	assert.Equal(t, 1, titles["Improve CCPA Compliance"], "recommendations sharing a title are merged")
	assert.Equal(t, recommendation.PriorityCritical, report.Recommendations[0].Priority)

	assert.GreaterOrEqual(t, report.PredictedCompliance, report.CurrentCompliance)
	assert.LessOrEqual(t, report.PredictedCompliance, MaxPredictedCompliance)

	assert.Equal(t, cost.StandardModel.Name, report.CostEstimate.Model)
	assert.InDelta(t, 2.0, report.CostEstimate.ROI, 1e-9)

	assert.Equal(t, 1, archiver.Count())
	stored, err := repo.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report, stored)

	select {
	case ev := <-predicted:
		payload := ev.Payload.(events.PredictedPayload)
		assert.Equal(t, report.ID, payload.ReportID)
		assert.Equal(t, compliance.ModelStandard, payload.Model)
	case <-time.After(2 * time.Second):
		t.Fatal("compliance.predicted was not emitted")
	}
}

func TestComplianceService_GenerateComplianceReport_Errors(t *testing.T) {
	svc, _ := newTestService(t, ComplianceConfig{})

	_, err := svc.GenerateComplianceReport(context.Background(), testOrg(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.As(err).Code)

	_, err = svc.GenerateComplianceReport(context.Background(), nil, []*document.Document{testDoc("d1")})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBadRequest, errors.As(err).Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.GenerateComplianceReport(ctx, testOrg(), []*document.Document{testDoc("d1")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComplianceService_ReportIsIndependentOfWorkerCount(t *testing.T) {
	build := func(workers int) *compliance.Prediction {
		svc, _ := newTestService(t, ComplianceConfig{ReportWorkers: workers})
		svc.RegisterRule(compliance.NewFuncRule(
			compliance.RuleInfo{RuleID: "len", RuleName: "Length", RuleFramework: "SOX", RuleSeverity: compliance.SeverityError},
			func(doc *document.Document, _ compliance.ValidationOptions) ([]compliance.Issue, error) {
				sev := []compliance.Severity{compliance.SeverityInfo, compliance.SeverityWarning, compliance.SeverityError, compliance.SeverityCritical}[len(doc.ID)%4]
				return []compliance.Issue{{ID: "len", Severity: sev, Message: string(sev), RegulatoryReference: &compliance.RegulatoryReference{Framework: "SOX"}}}, nil
			},
		))

		var docs []*document.Document
		for i := 0; i < 25; i++ {
			docs = append(docs, testDoc(fmt.Sprintf("doc-%0*d", 1+i%4, i)))
		}
		report, err := svc.GenerateComplianceReport(context.Background(), testOrg(), docs)
		require.NoError(t, err)
		return report
	}

	serial := build(1)
	parallel := build(8)

	assert.Equal(t, serial.CurrentCompliance, parallel.CurrentCompliance)
	assert.Equal(t, serial.Documents, parallel.Documents)
	assert.Equal(t, serial.HighRiskAreas, parallel.HighRiskAreas)
	assert.Equal(t, serial.Recommendations, parallel.Recommendations)
	assert.Equal(t, serial.CostEstimate, parallel.CostEstimate)
}

func TestComplianceService_ReportSurvivesSinkFailures(t *testing.T) {
	repo := testutil.NewMockComplianceRepository()
	repo.SaveError = testutil.ErrMock
	archiver := &testutil.MockArchiver{Err: testutil.ErrMock}
	svc, _ := newTestService(t, ComplianceConfig{}, WithComplianceRepository(repo), WithArchiver(archiver))

	report, err := svc.GenerateComplianceReport(context.Background(), testOrg(), []*document.Document{testDoc("d1")})
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 0, archiver.Count())
}

func TestComplianceService_PredictCompliance(t *testing.T) {
	changes := []regulatory.Change{{
		ID:            "eu-ai-act",
		Framework:     "GDPR",
		Jurisdiction:  "EU",
		Title:         "AI Act obligations",
		Impact:        regulatory.ImpactHigh,
		EffectiveDate: testutil.FixedTime.AddDate(0, 6, 0),
	}}
	tracker := &testutil.MockTracker{Changes: changes}
	predictor := &testutil.MockPredictor{Areas: []compliance.RiskArea{{
		Area:      "AI Act obligations",
		Framework: "GDPR",
		RiskScore: 0.99,
		Deadline:  testutil.FixedTime.AddDate(0, 0, 180),
	}}}

	svc, _ := newTestService(t, ComplianceConfig{}, WithTracker(tracker), WithPredictor(predictor))
	svc.RegisterRule(fixedRule("w", "CCPA", compliance.SeverityWarning))

	report, err := svc.PredictCompliance(context.Background(), testOrg(), []*document.Document{testDoc("d1")})
	require.NoError(t, err)

	assert.Equal(t, compliance.ModelPredictive, report.Model)
	assert.Equal(t, changes, report.UpcomingChanges)
	require.Len(t, tracker.Calls, 1)
	assert.Equal(t, []string{"EU"}, tracker.Calls[0])

	require.Len(t, predictor.Params, 1)
	assert.InDelta(t, 0.7, predictor.Params[0].CurrentCompliance, 1e-9)
	assert.Equal(t, 50, predictor.Params[0].Size)

	require.Len(t, report.HighRiskAreas, 2)
	assert.Equal(t, "AI Act obligations", report.HighRiskAreas[0].Area)
	assert.Equal(t, compliance.MaxRiskScore, report.HighRiskAreas[0].RiskScore)
	assert.Equal(t, "CCPA Compliance", report.HighRiskAreas[1].Area)

	// The predicted area lands on the timeline with a review at its midpoint
	var sawReview bool
	for _, ev := range report.Timeline.Events {
		if ev.Type == compliance.EventTypeReview && ev.Date.Equal(testutil.FixedTime.AddDate(0, 0, 90)) {
			sawReview = true
		}
	}
	assert.True(t, sawReview)
	assert.Contains(t, report.Timeline.CriticalPath, testutil.FixedTime.AddDate(0, 0, 180))

	assert.Equal(t, cost.PredictiveModel.Name, report.CostEstimate.Model)
	assert.InDelta(t, 4.0, report.CostEstimate.ROI, 1e-9)
	// one low-effort recommendation plus the two fixed items
	assert.InDelta(t, 4*150+10000+15000, report.CostEstimate.Total, 0.001)
}

func TestComplianceService_PredictCompliance_Degrades(t *testing.T) {
	tests := []struct {
		name          string
		tracker       *testutil.MockTracker
		predictor     *testutil.MockPredictor
		wantChanges   int
		wantPredicted int
	}{
		{
			name:      "tracker fails",
			tracker:   &testutil.MockTracker{Err: testutil.ErrMock},
			predictor: &testutil.MockPredictor{},
		},
		{
			name:          "predictor fails",
			tracker:       &testutil.MockTracker{Changes: []regulatory.Change{{ID: "c1", Framework: "GDPR"}}},
			predictor:     &testutil.MockPredictor{Err: testutil.ErrMock},
			wantChanges:   1,
			wantPredicted: 1,
		},
		{
			name:      "no changes skips the predictor",
			tracker:   &testutil.MockTracker{},
			predictor: &testutil.MockPredictor{Areas: []compliance.RiskArea{{Area: "never"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, ComplianceConfig{}, WithTracker(tt.tracker), WithPredictor(tt.predictor))
			svc.RegisterRule(fixedRule("w", "CCPA", compliance.SeverityWarning))

			report, err := svc.PredictCompliance(context.Background(), testOrg(), []*document.Document{testDoc("d1")})
			require.NoError(t, err)

			assert.Len(t, report.UpcomingChanges, tt.wantChanges)
			assert.Len(t, tt.predictor.Params, tt.wantPredicted)
			require.Len(t, report.HighRiskAreas, 1)
			assert.Equal(t, "CCPA Compliance", report.HighRiskAreas[0].Area)
			assert.Equal(t, compliance.ModelPredictive, report.Model)
		})
	}
}

func TestComplianceService_GenerateReportForOrganization(t *testing.T) {
	ctx := context.Background()
	orgs := testutil.NewMockOrganizationRepository()
	docs := testutil.NewMockDocumentRepository()
	require.NoError(t, orgs.Create(ctx, testOrg()))
	for i := 0; i < 3; i++ {
		d := testDoc("")
		d.Title = fmt.Sprintf("Doc %d", i)
		require.NoError(t, docs.Create(ctx, d))
	}

	svc, _ := newTestService(t, ComplianceConfig{ReportWorkers: 2},
		WithOrganizationRepository(orgs),
		WithDocumentRepository(docs),
	)
	svc.RegisterRule(fixedRule("w", "CCPA", compliance.SeverityWarning))

	report, err := svc.GenerateReportForOrganization(ctx, "org-1", false)
	require.NoError(t, err)
	assert.Len(t, report.Documents, 3)
	assert.Equal(t, compliance.ModelStandard, report.Model)

	report, err = svc.GenerateReportForOrganization(ctx, "org-1", true)
	require.NoError(t, err)
	assert.Equal(t, compliance.ModelPredictive, report.Model)

	_, err = svc.GenerateReportForOrganization(ctx, "missing", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.As(err).Code)
}

func TestComplianceService_EventTriggeredValidation(t *testing.T) {
	repo := testutil.NewMockComplianceRepository()
	svc, bus := newTestService(t, ComplianceConfig{}, WithComplianceRepository(repo))
	svc.RegisterRule(fixedRule("w", "CCPA", compliance.SeverityWarning))

	bus.Emit(events.DocumentSaved, events.DocumentPayload{Document: testDoc("saved")})
	bus.Emit(events.TemplatesRendered, testDoc("rendered"))
	bus.Emit(events.DocumentSaved, "not a document")

	assert.Eventually(t, func() bool { return repo.ResultCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	results, err := repo.ListResults(context.Background(), "rendered", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Recommendations)
}

func TestComplianceService_OrganizationUpdatedRegeneratesReport(t *testing.T) {
	ctx := context.Background()
	orgs := testutil.NewMockOrganizationRepository()
	docs := testutil.NewMockDocumentRepository()
	repo := testutil.NewMockComplianceRepository()
	require.NoError(t, orgs.Create(ctx, testOrg()))
	require.NoError(t, docs.Create(ctx, testDoc("")))

	_, bus := newTestService(t, ComplianceConfig{},
		WithOrganizationRepository(orgs),
		WithDocumentRepository(docs),
		WithComplianceRepository(repo),
	)

	bus.Emit(events.OrganizationUpdated, events.OrganizationPayload{OrganizationID: "org-1"})

	assert.Eventually(t, func() bool {
		reports, _ := repo.ListReports(ctx, "org-1", 0)
		return len(reports) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestComplianceService_RegulationsUpdatedReloadsPacks(t *testing.T) {
	dir := t.TempDir()
	pack := filepath.Join(dir, "pack.yaml")
	writePack := func(ids ...string) {
		content := "rules:\n"
		for _, id := range ids {
			content += fmt.Sprintf("  - id: %s\n    name: %s\n    framework: GDPR\n    severity: warning\n    required:\n      - \"lawful basis\"\n", id, id)
		}
		require.NoError(t, os.WriteFile(pack, []byte(content), 0o644))
	}
	writePack("pack-a", "pack-b")

	svc, bus := newTestService(t, ComplianceConfig{RulesDir: dir})
	svc.RegisterRule(fixedRule("host", "GDPR"))
	require.Len(t, svc.GetRulesByFramework("GDPR"), 3)

	writePack("pack-b", "pack-c")
	bus.Emit(events.RegulationsUpdated, events.RegulationsPayload{Jurisdictions: []string{"EU"}})

	assert.Eventually(t, func() bool {
		_, hasA := svc.Registry().Get("pack-a")
		_, hasC := svc.Registry().Get("pack-c")
		return !hasA && hasC
	}, 2*time.Second, 10*time.Millisecond)

	_, hasHost := svc.Registry().Get("host")
	assert.True(t, hasHost)
	assert.Equal(t, 3, svc.Registry().Len())
}

func TestComplianceService_InitializeFailsOnBadPack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("rules:\n  - id: x\n"), 0o644))

	svc := NewComplianceService(nil, nil, testutil.Logger(), ComplianceConfig{RulesDir: dir})
	require.Error(t, svc.Initialize(context.Background()))

	_, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestComplianceService_InitializeRetryAfterBadPack(t *testing.T) {
	dir := t.TempDir()
	pack := filepath.Join(dir, "pack.yaml")
	require.NoError(t, os.WriteFile(pack, []byte("rules:\n  - id: x\n"), 0o644))

	var logs bytes.Buffer
	log := logger.New(logger.Config{Level: "warn", Output: &logs})
	bus := events.NewBus(8, log)
	defer bus.Close()

	svc := NewComplianceService(NewRuleRegistry(log), bus, log, ComplianceConfig{LoadBuiltins: true, RulesDir: dir})
	require.Error(t, svc.Initialize(context.Background()))
	builtins := len(rules.Builtin())
	require.Equal(t, builtins, svc.Registry().Len())

	valid := "rules:\n  - id: dpo\n    name: DPO\n    framework: gdpr\n    severity: warning\n    required:\n      - \"data protection officer\"\n"
	require.NoError(t, os.WriteFile(pack, []byte(valid), 0o644))
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	assert.Equal(t, builtins+1, svc.Registry().Len())
	assert.NotContains(t, logs.String(), "rule already registered")
	assert.Contains(t, ruleIDs(svc.GetRulesByFramework(compliance.FrameworkGDPR)), "dpo")
}

func TestComplianceService_CloseUnsubscribes(t *testing.T) {
	svc, bus := newTestService(t, ComplianceConfig{})
	require.Equal(t, 1, bus.Count(events.DocumentSaved))

	svc.Close()
	assert.Equal(t, 0, bus.Count(events.DocumentSaved))
	assert.Equal(t, 0, bus.Count(events.RegulationsUpdated))

	_, err := svc.ValidateDocument(context.Background(), testDoc("d1"), compliance.ValidationOptions{})
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestForecastCompliance(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		impacts []float64
		want    float64
	}{
		{"no recommendations", 0.5, nil, 0.5},
		{"partial impact", 0.5, []float64{0.4}, 0.7},
		{"impact saturates", 0.5, []float64{0.7, 0.9}, 0.99},
		{"already perfect", 1.0, []float64{0.4}, 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recs []recommendation.Recommendation
			for _, imp := range tt.impacts {
				recs = append(recs, recommendation.Recommendation{Impact: imp})
			}
			assert.InDelta(t, tt.want, ForecastCompliance(tt.current, recs), 1e-9)
		})
	}
}
