package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
)

// recommendationTier describes how one severity tier of a framework's
// issues turns into a recommendation
type recommendationTier struct {
	severity     compliance.Severity
	priority     string
	days         int
	impact       float64
	highEffortAt int // tier size above which effort is high; 0 means always low
	title        string
	description  string
}

var recommendationTiers = []recommendationTier{
	{
		severity:     compliance.SeverityCritical,
		priority:     recommendation.PriorityCritical,
		days:         7,
		impact:       0.9,
		highEffortAt: 5,
		title:        "Fix Critical %s Compliance Issues",
		description:  "%d critical %s issue(s) must be fixed before the document can be relied on",
	},
	{
		severity:     compliance.SeverityError,
		priority:     recommendation.PriorityHigh,
		days:         14,
		impact:       0.7,
		highEffortAt: 10,
		title:        "Resolve %s Compliance Errors",
		description:  "%d %s compliance error(s) leave the document non-compliant",
	},
	{
		severity:    compliance.SeverityWarning,
		priority:    recommendation.PriorityMedium,
		days:        30,
		impact:      0.4,
		title:       "Improve %s Compliance",
		description: "%d %s warning(s) point at weaker drafting that should be tightened",
	},
}

// RecommendationEngine turns compliance issues into remediation items
type RecommendationEngine struct{}

// NewRecommendationEngine creates a new recommendation engine
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Generate groups attributable issues by framework (in first-appearance order)
// and emits one recommendation per non-empty critical, error and warning tier.
// Issues without a regulatory reference are ignored.
func (e *RecommendationEngine) Generate(issues []compliance.Issue, now time.Time) []recommendation.Recommendation {
	groups := groupByFramework(issues)

	var recs []recommendation.Recommendation
	for _, g := range groups {
		for _, tier := range recommendationTiers {
			var steps []string
			for _, issue := range g.issues {
				if issue.Severity == tier.severity {
					steps = append(steps, issue.Message)
				}
			}
			if len(steps) == 0 {
				continue
			}

			effort := recommendation.EffortLow
			if tier.highEffortAt > 0 {
				effort = recommendation.EffortMedium
				if len(steps) > tier.highEffortAt {
					effort = recommendation.EffortHigh
				}
			}

			recs = append(recs, recommendation.Recommendation{
				Title:       fmt.Sprintf(tier.title, g.framework),
				Description: fmt.Sprintf(tier.description, len(steps), g.framework),
				Framework:   g.framework,
				Priority:    tier.priority,
				Effort:      effort,
				Steps:       steps,
				Impact:      tier.impact,
				Deadline:    now.AddDate(0, 0, tier.days),
			})
		}
	}
	return recs
}

type frameworkGroup struct {
	framework string
	issues    []compliance.Issue
}

// groupByFramework keeps only issues with a regulatory reference and
// groups them by framework in order of first appearance
func groupByFramework(issues []compliance.Issue) []frameworkGroup {
	index := make(map[string]int)
	var groups []frameworkGroup
	for _, issue := range issues {
		if issue.RegulatoryReference == nil {
			continue
		}
		fw := issue.RegulatoryReference.Framework
		i, ok := index[fw]
		if !ok {
			i = len(groups)
			index[fw] = i
			groups = append(groups, frameworkGroup{framework: fw})
		}
		groups[i].issues = append(groups[i].issues, issue)
	}
	return groups
}

// AggregateRecommendations merges recommendations that share a title and
// sorts the result by priority, most severe first, then by deadline.
// A title seen once passes through unchanged.
func AggregateRecommendations(recs []recommendation.Recommendation) []recommendation.Recommendation {
	index := make(map[string]int)
	var grouped [][]recommendation.Recommendation
	for _, r := range recs {
		i, ok := index[r.Title]
		if !ok {
			i = len(grouped)
			index[r.Title] = i
			grouped = append(grouped, nil)
		}
		grouped[i] = append(grouped[i], r)
	}

	out := make([]recommendation.Recommendation, 0, len(grouped))
	for _, g := range grouped {
		if len(g) == 1 {
			out = append(out, g[0])
			continue
		}
		out = append(out, mergeRecommendations(g))
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := recommendation.PriorityRank(out[i].Priority), recommendation.PriorityRank(out[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

func mergeRecommendations(group []recommendation.Recommendation) recommendation.Recommendation {
	merged := group[0]
	merged.Steps = nil

	seen := make(map[string]struct{})
	for i, r := range group {
		if i > 0 {
			if recommendation.PriorityRank(r.Priority) > recommendation.PriorityRank(merged.Priority) {
				merged.Priority = r.Priority
			}
			if recommendation.EffortRank(r.Effort) > recommendation.EffortRank(merged.Effort) {
				merged.Effort = r.Effort
			}
			if r.Impact > merged.Impact {
				merged.Impact = r.Impact
			}
			if r.Deadline.Before(merged.Deadline) {
				merged.Deadline = r.Deadline
			}
		}
		for _, step := range r.Steps {
			if _, dup := seen[step]; dup {
				continue
			}
			seen[step] = struct{}{}
			merged.Steps = append(merged.Steps, step)
		}
	}
	return merged
}
