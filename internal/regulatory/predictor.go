package regulatory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
)

var impactBase = map[string]float64{
	regulatory.ImpactLow:      0.3,
	regulatory.ImpactMedium:   0.5,
	regulatory.ImpactHigh:     0.7,
	regulatory.ImpactCritical: 0.85,
}

var impactComplexity = map[string]string{
	regulatory.ImpactLow:      compliance.ComplexityLow,
	regulatory.ImpactMedium:   compliance.ComplexityMedium,
	regulatory.ImpactHigh:     compliance.ComplexityHigh,
	regulatory.ImpactCritical: compliance.ComplexityHigh,
}

// minLeadTime is the shortest deadline given for a change already in force
const minLeadTime = 7 * 24 * time.Hour

// HeuristicPredictor scores upcoming changes from their declared impact,
// the organization's current compliance and whether it follows the
// affected framework
type HeuristicPredictor struct{}

// NewHeuristicPredictor creates a heuristic predictor
func NewHeuristicPredictor() *HeuristicPredictor {
	return &HeuristicPredictor{}
}

// PredictImpacts returns one risk area per change
func (p *HeuristicPredictor) PredictImpacts(ctx context.Context, params regulatory.ImpactParams) ([]compliance.RiskArea, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	areas := make([]compliance.RiskArea, 0, len(params.Changes))
	for _, c := range params.Changes {
		base, ok := impactBase[strings.ToLower(c.Impact)]
		if !ok {
			base = impactBase[regulatory.ImpactMedium]
		}

		// A weak current posture makes every change riskier
		score := base + 0.2*(1-clamp01(params.CurrentCompliance))
		if len(params.Frameworks) > 0 && !containsFold(params.Frameworks, c.Framework) {
			score *= 0.5
		}
		if params.Size > 1000 {
			score += 0.05
		}

		complexity, ok := impactComplexity[strings.ToLower(c.Impact)]
		if !ok {
			complexity = compliance.ComplexityMedium
		}

		deadline := c.EffectiveDate
		if deadline.Sub(params.Now) < minLeadTime {
			deadline = params.Now.Add(minLeadTime)
		}

		areas = append(areas, compliance.RiskArea{
			Area:              c.Title,
			Framework:         c.Framework,
			RiskScore:         math.Min(compliance.MaxRiskScore, score),
			ImpactDescription: describeChange(c),
			Deadline:          deadline,
			Complexity:        complexity,
		})
	}
	return areas, nil
}

func describeChange(c regulatory.Change) string {
	desc := fmt.Sprintf("%s impact %s change", c.Impact, c.Framework)
	if c.Jurisdiction != "" {
		desc += " in " + c.Jurisdiction
	}
	if !c.EffectiveDate.IsZero() {
		desc += ", effective " + c.EffectiveDate.Format("2006-01-02")
	}
	return desc
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
