package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pratik-mahalle/lexaudit/internal/domain/cost"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
)

var (
	bestCaseFactor  = decimal.NewFromFloat(0.7)
	worstCaseFactor = decimal.NewFromFloat(1.5)
)

// CostEstimator prices recommendation sets under a named cost model
type CostEstimator struct {
	hourlyRate decimal.Decimal
	currency   string
}

// NewCostEstimator creates an estimator using the default rate and currency
func NewCostEstimator() *CostEstimator {
	return &CostEstimator{
		hourlyRate: decimal.NewFromFloat(cost.HourlyRate),
		currency:   cost.DefaultCurrency,
	}
}

// Estimate prices recs for an organization of orgSize people. Each
// recommendation becomes one breakdown line; the model's fixed items are
// appended before scenarios and ROI are computed.
func (e *CostEstimator) Estimate(recs []recommendation.Recommendation, orgSize int, model cost.Model) cost.Estimate {
	multiplier := decimal.NewFromFloat(cost.SizeMultiplier(orgSize))

	breakdown := make([]cost.Item, 0, len(recs)+len(model.FixedItems))
	total := decimal.Zero

	for _, rec := range recs {
		hours := cost.EffortHours[rec.Effort]
		amount := decimal.NewFromFloat(hours).Mul(e.hourlyRate).Mul(multiplier).Round(2)
		total = total.Add(amount)

		breakdown = append(breakdown, cost.Item{
			Category:    rec.Title,
			Amount:      amount.InexactFloat64(),
			Description: fmt.Sprintf("%s effort, %.0f hours at %s/hour", rec.Effort, hours, e.hourlyRate.StringFixed(2)),
		})
	}

	for _, item := range model.FixedItems {
		total = total.Add(decimal.NewFromFloat(item.Amount))
		breakdown = append(breakdown, item)
	}

	roi := decimal.Zero
	if total.IsPositive() {
		nonCompliance := total.Mul(decimal.NewFromFloat(model.NonComplianceMultiplier))
		roi = nonCompliance.Sub(total).Div(total)
	}

	return cost.Estimate{
		Model:     model.Name,
		Currency:  e.currency,
		Total:     total.Round(2).InexactFloat64(),
		Breakdown: breakdown,
		Scenarios: cost.Scenarios{
			Best:     total.Mul(bestCaseFactor).Round(2).InexactFloat64(),
			Expected: total.Round(2).InexactFloat64(),
			Worst:    total.Mul(worstCaseFactor).Round(2).InexactFloat64(),
		},
		ROI: roi.Round(4).InexactFloat64(),
	}
}
