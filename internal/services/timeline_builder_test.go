package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
)

func TestBuildTimeline_ReviewAtMidpoint(t *testing.T) {
	area := compliance.RiskArea{
		Area:      "GDPR Compliance",
		Framework: "GDPR",
		RiskScore: 0.8,
		Deadline:  testNow.AddDate(0, 0, 180),
	}

	tl := BuildTimeline([]compliance.RiskArea{area}, nil, testNow)
	require.Len(t, tl.Events, 2)

	review := tl.Events[0]
	assert.Equal(t, compliance.EventTypeReview, review.Type)
	assert.Equal(t, testNow.AddDate(0, 0, 90), review.Date)

	deadline := tl.Events[1]
	assert.Equal(t, compliance.EventTypeDeadline, deadline.Type)
	assert.Equal(t, compliance.ImportanceHigh, deadline.Importance)
	assert.Equal(t, area.Deadline, deadline.Date)

	assert.Contains(t, tl.CriticalPath, area.Deadline)
}

func TestBuildTimeline_Importance(t *testing.T) {
	tests := []struct {
		score     float64
		want      string
		hasReview bool
	}{
		{0.9, compliance.ImportanceHigh, true},
		{0.71, compliance.ImportanceHigh, true},
		{0.7, compliance.ImportanceMedium, true},
		{0.5, compliance.ImportanceMedium, false},
		{0.41, compliance.ImportanceMedium, false},
		{0.4, compliance.ImportanceLow, false},
	}

	for _, tt := range tests {
		area := compliance.RiskArea{Area: "X Compliance", RiskScore: tt.score, Deadline: testNow.AddDate(0, 0, 10)}
		tl := BuildTimeline([]compliance.RiskArea{area}, nil, testNow)

		var deadline *compliance.TimelineEvent
		reviews := 0
		for i := range tl.Events {
			switch tl.Events[i].Type {
			case compliance.EventTypeDeadline:
				deadline = &tl.Events[i]
			case compliance.EventTypeReview:
				reviews++
			}
		}
		require.NotNil(t, deadline)
		assert.Equal(t, tt.want, deadline.Importance, "score %v", tt.score)
		assert.Equal(t, tt.hasReview, reviews == 1, "score %v", tt.score)
	}
}

func TestBuildTimeline_RecommendationEvents(t *testing.T) {
	recs := []recommendation.Recommendation{
		{Title: "low", Priority: recommendation.PriorityLow, Deadline: testNow.AddDate(0, 0, 4)},
		{Title: "critical", Priority: recommendation.PriorityCritical, Deadline: testNow.AddDate(0, 0, 3)},
		{Title: "medium", Priority: recommendation.PriorityMedium, Deadline: testNow.AddDate(0, 0, 2)},
		{Title: "high", Priority: recommendation.PriorityHigh, Deadline: testNow.AddDate(0, 0, 1)},
	}

	tl := BuildTimeline(nil, recs, testNow)
	require.Len(t, tl.Events, 4)

	want := []struct{ desc, importance string }{
		{"high", compliance.ImportanceHigh},
		{"medium", compliance.ImportanceMedium},
		{"critical", compliance.ImportanceHigh},
		{"low", compliance.ImportanceLow},
	}
	for i, w := range want {
		assert.Equal(t, w.desc, tl.Events[i].Description)
		assert.Equal(t, w.importance, tl.Events[i].Importance)
		assert.Equal(t, compliance.EventTypeInternal, tl.Events[i].Type)
	}
	assert.Equal(t, []interface{}{testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 3)}, toIface(tl.CriticalPath))
}

func TestBuildTimeline_CriticalPathIsOrderedHighSubsequence(t *testing.T) {
	areas := []compliance.RiskArea{
		{Area: "A", RiskScore: 0.9, Deadline: testNow.AddDate(0, 0, 7)},
		{Area: "B", RiskScore: 0.2, Deadline: testNow.AddDate(0, 0, 2)},
		{Area: "C", RiskScore: 0.75, Deadline: testNow.AddDate(0, 0, 60)},
	}
	recs := []recommendation.Recommendation{
		{Title: "r1", Priority: recommendation.PriorityHigh, Deadline: testNow.AddDate(0, 0, 14)},
		{Title: "r2", Priority: recommendation.PriorityMedium, Deadline: testNow.AddDate(0, 0, 1)},
	}

	tl := BuildTimeline(areas, recs, testNow)

	for i := 1; i < len(tl.Events); i++ {
		assert.False(t, tl.Events[i].Date.Before(tl.Events[i-1].Date), "events not sorted at %d", i)
	}

	var highDates []interface{}
	for _, ev := range tl.Events {
		if ev.Importance == compliance.ImportanceHigh {
			highDates = append(highDates, ev.Date)
		}
	}
	assert.Equal(t, highDates, toIface(tl.CriticalPath))
	assert.Len(t, tl.CriticalPath, 3)
}

func TestBuildTimeline_Empty(t *testing.T) {
	tl := BuildTimeline(nil, nil, testNow)
	assert.NotNil(t, tl.Events)
	assert.NotNil(t, tl.CriticalPath)
	assert.Empty(t, tl.Events)
}

func toIface[T any](in []T) []interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
