package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
)

var riskWeights = map[compliance.Severity]float64{
	compliance.SeverityInfo:     0.1,
	compliance.SeverityWarning:  0.3,
	compliance.SeverityError:    0.6,
	compliance.SeverityCritical: 0.9,
}

// severityOrder is the order counts appear in an impact description
var severityOrder = []compliance.Severity{
	compliance.SeverityCritical,
	compliance.SeverityError,
	compliance.SeverityWarning,
	compliance.SeverityInfo,
}

// RiskAssessor derives framework-scoped risk areas from issues
type RiskAssessor struct{}

// NewRiskAssessor creates a new risk assessor
func NewRiskAssessor() *RiskAssessor {
	return &RiskAssessor{}
}

// Assess returns one risk area per framework referenced by the issues,
// in first-appearance order
func (a *RiskAssessor) Assess(issues []compliance.Issue, now time.Time) []compliance.RiskArea {
	groups := groupByFramework(issues)

	areas := make([]compliance.RiskArea, 0, len(groups))
	for _, g := range groups {
		counts := make(map[compliance.Severity]int)
		var sum float64
		for _, issue := range g.issues {
			counts[issue.Severity]++
			sum += riskWeights[issue.Severity]
		}
		n := len(g.issues)

		complexity := compliance.ComplexityLow
		switch {
		case n > 10 || counts[compliance.SeverityCritical] > 0:
			complexity = compliance.ComplexityHigh
		case n > 5 || counts[compliance.SeverityError] > 0:
			complexity = compliance.ComplexityMedium
		}

		days := 30
		switch {
		case counts[compliance.SeverityCritical] > 0:
			days = 7
		case counts[compliance.SeverityError] > 0:
			days = 14
		}

		areas = append(areas, compliance.RiskArea{
			Area:              g.framework + " Compliance",
			Framework:         g.framework,
			RiskScore:         math.Min(compliance.MaxRiskScore, sum/float64(n)),
			ImpactDescription: impactDescription(counts),
			Deadline:          now.AddDate(0, 0, days),
			Complexity:        complexity,
		})
	}
	return areas
}

func impactDescription(counts map[compliance.Severity]int) string {
	var parts []string
	for _, sev := range severityOrder {
		if c := counts[sev]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, sev))
		}
	}
	return strings.Join(parts, ", ")
}
