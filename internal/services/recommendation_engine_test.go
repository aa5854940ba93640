package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
)

var testNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func refIssue(framework string, sev compliance.Severity, msg string) compliance.Issue {
	return compliance.Issue{
		ID:                  fmt.Sprintf("%s-%s-%s", framework, sev, msg),
		Severity:            sev,
		Message:             msg,
		RegulatoryReference: &compliance.RegulatoryReference{Framework: framework},
	}
}

func repeatIssues(framework string, sev compliance.Severity, n int) []compliance.Issue {
	out := make([]compliance.Issue, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, refIssue(framework, sev, fmt.Sprintf("m%d", i)))
	}
	return out
}

func TestRecommendationEngine_GDPRError(t *testing.T) {
	recs := NewRecommendationEngine().Generate([]compliance.Issue{
		refIssue("GDPR", compliance.SeverityError, "Missing lawful basis"),
	}, testNow)

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "Resolve GDPR Compliance Errors", rec.Title)
	assert.Equal(t, recommendation.PriorityHigh, rec.Priority)
	assert.Equal(t, testNow.AddDate(0, 0, 14), rec.Deadline)
	assert.Equal(t, recommendation.EffortMedium, rec.Effort)
	assert.Equal(t, 0.7, rec.Impact)
	assert.Equal(t, []string{"Missing lawful basis"}, rec.Steps)
}

func TestRecommendationEngine_Tiers(t *testing.T) {
	issues := []compliance.Issue{
		refIssue("HIPAA", compliance.SeverityWarning, "w1"),
		refIssue("GDPR", compliance.SeverityInfo, "i1"),
		refIssue("HIPAA", compliance.SeverityCritical, "c1"),
		{ID: "unattributed", Severity: compliance.SeverityCritical, Message: "no reference"},
		refIssue("HIPAA", compliance.SeverityError, "e1"),
	}

	recs := NewRecommendationEngine().Generate(issues, testNow)

	// GDPR has only info issues; the unattributed issue is ignored
	require.Len(t, recs, 3)
	assert.Equal(t, "Fix Critical HIPAA Compliance Issues", recs[0].Title)
	assert.Equal(t, recommendation.PriorityCritical, recs[0].Priority)
	assert.Equal(t, testNow.AddDate(0, 0, 7), recs[0].Deadline)
	assert.Equal(t, 0.9, recs[0].Impact)

	assert.Equal(t, "Resolve HIPAA Compliance Errors", recs[1].Title)

	assert.Equal(t, "Improve HIPAA Compliance", recs[2].Title)
	assert.Equal(t, recommendation.PriorityMedium, recs[2].Priority)
	assert.Equal(t, recommendation.EffortLow, recs[2].Effort)
	assert.Equal(t, testNow.AddDate(0, 0, 30), recs[2].Deadline)
	assert.Equal(t, 0.4, recs[2].Impact)
}

func TestRecommendationEngine_Effort(t *testing.T) {
	tests := []struct {
		name   string
		sev    compliance.Severity
		count  int
		effort string
	}{
		{"five critical", compliance.SeverityCritical, 5, recommendation.EffortMedium},
		{"six critical", compliance.SeverityCritical, 6, recommendation.EffortHigh},
		{"ten errors", compliance.SeverityError, 10, recommendation.EffortMedium},
		{"eleven errors", compliance.SeverityError, 11, recommendation.EffortHigh},
		{"many warnings", compliance.SeverityWarning, 50, recommendation.EffortLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := NewRecommendationEngine().Generate(repeatIssues("SOX", tt.sev, tt.count), testNow)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.effort, recs[0].Effort)
			assert.Len(t, recs[0].Steps, tt.count)
		})
	}
}

func TestAggregateRecommendations_Identity(t *testing.T) {
	rec := recommendation.Recommendation{
		Title:    "Improve CCPA Compliance",
		Priority: recommendation.PriorityMedium,
		Effort:   recommendation.EffortLow,
		Steps:    []string{"b", "a", "b"},
		Impact:   0.4,
		Deadline: testNow.AddDate(0, 0, 30),
	}

	got := AggregateRecommendations([]recommendation.Recommendation{rec})
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestAggregateRecommendations_Merge(t *testing.T) {
	early := testNow.AddDate(0, 0, 3)
	late := testNow.AddDate(0, 0, 20)

	recs := []recommendation.Recommendation{
		{Title: "Improve GDPR Compliance", Priority: recommendation.PriorityMedium, Effort: recommendation.EffortLow, Steps: []string{"x"}, Impact: 0.4, Deadline: late},
		{Title: "Resolve GDPR Compliance Errors", Priority: recommendation.PriorityHigh, Effort: recommendation.EffortMedium, Steps: []string{"a", "b"}, Impact: 0.5, Deadline: late},
		{Title: "Resolve GDPR Compliance Errors", Priority: recommendation.PriorityCritical, Effort: recommendation.EffortLow, Steps: []string{"b", "c"}, Impact: 0.7, Deadline: early},
		{Title: "Resolve GDPR Compliance Errors", Priority: recommendation.PriorityLow, Effort: recommendation.EffortHigh, Steps: []string{"a"}, Impact: 0.1, Deadline: late},
	}

	got := AggregateRecommendations(recs)
	require.Len(t, got, 2)

	merged := got[0]
	assert.Equal(t, "Resolve GDPR Compliance Errors", merged.Title)
	assert.Equal(t, recommendation.PriorityCritical, merged.Priority)
	assert.Equal(t, recommendation.EffortHigh, merged.Effort)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, merged.Steps)
	assert.Equal(t, 0.7, merged.Impact)
	assert.Equal(t, early, merged.Deadline)

	assert.Equal(t, "Improve GDPR Compliance", got[1].Title)

	// Inputs are not mutated
	assert.Equal(t, []string{"a", "b"}, recs[1].Steps)
}

func TestAggregateRecommendations_Order(t *testing.T) {
	d := func(days int) time.Time { return testNow.AddDate(0, 0, days) }
	recs := []recommendation.Recommendation{
		{Title: "low", Priority: recommendation.PriorityLow, Deadline: d(1)},
		{Title: "high-late", Priority: recommendation.PriorityHigh, Deadline: d(20)},
		{Title: "critical", Priority: recommendation.PriorityCritical, Deadline: d(30)},
		{Title: "high-early", Priority: recommendation.PriorityHigh, Deadline: d(5)},
		{Title: "medium", Priority: recommendation.PriorityMedium, Deadline: d(2)},
	}

	got := AggregateRecommendations(recs)
	titles := make([]string, 0, len(got))
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"critical", "high-early", "high-late", "medium", "low"}, titles)
}
