package services

import (
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
)

// scoreWeights are the per-severity penalties used by the compliance score
var scoreWeights = map[compliance.Severity]float64{
	compliance.SeverityInfo:     0.1,
	compliance.SeverityWarning:  0.3,
	compliance.SeverityError:    0.6,
	compliance.SeverityCritical: 1.0,
}

// ComplianceScore returns 1 minus the mean issue weight, floored at 0.
// No issues scores exactly 1.0. Because the mean is over the issue count,
// extra low-severity issues can raise the score.
func ComplianceScore(issues []compliance.Issue) float64 {
	if len(issues) == 0 {
		return 1.0
	}

	var sum float64
	for _, issue := range issues {
		sum += scoreWeights[issue.Severity]
	}

	score := 1 - sum/float64(len(issues))
	if score < 0 {
		return 0
	}
	return score
}

// IsCompliant applies the verdict rule: strict mode tolerates no issues,
// otherwise only error and critical issues fail a document
func IsCompliant(issues []compliance.Issue, strict bool) bool {
	if strict {
		return len(issues) == 0
	}
	for _, issue := range issues {
		if issue.Severity == compliance.SeverityError || issue.Severity == compliance.SeverityCritical {
			return false
		}
	}
	return true
}
