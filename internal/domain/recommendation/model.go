package recommendation

import "time"

// Recommendation is an actionable remediation item derived from compliance issues
type Recommendation struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Framework   string    `json:"framework,omitempty"`
	Priority    string    `json:"priority"`
	Effort      string    `json:"effort"`
	Steps       []string  `json:"steps"`
	Impact      float64   `json:"impact"`
	Deadline    time.Time `json:"deadline"`
}

// Priority levels
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Effort levels
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// PriorityRank orders priorities; a higher rank is more severe.
// Unknown priorities rank below low.
func PriorityRank(p string) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// EffortRank orders effort levels; a higher rank is more work
func EffortRank(e string) int {
	switch e {
	case EffortHigh:
		return 3
	case EffortMedium:
		return 2
	case EffortLow:
		return 1
	}
	return 0
}

// TotalImpact sums the impact of a recommendation set
func TotalImpact(recs []Recommendation) float64 {
	var total float64
	for _, r := range recs {
		total += r.Impact
	}
	return total
}
