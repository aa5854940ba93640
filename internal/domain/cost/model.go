package cost

// Item is one line of a cost breakdown
type Item struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Scenarios holds best, expected and worst case totals
type Scenarios struct {
	Best     float64 `json:"best"`
	Expected float64 `json:"expected"`
	Worst    float64 `json:"worst"`
}

// Estimate is the projected cost of carrying out a set of recommendations
type Estimate struct {
	Model     string    `json:"model"`
	Currency  string    `json:"currency"`
	Total     float64   `json:"total"`
	Breakdown []Item    `json:"breakdown"`
	Scenarios Scenarios `json:"scenarios"`
	ROI       float64   `json:"roi"`
}

// Model parameterizes a cost estimate. The standard and predictive models
// are distinct by intent and are not interchangeable.
type Model struct {
	Name string
	// NonComplianceMultiplier scales remediation cost into the modelled cost
	// of staying non-compliant, which drives ROI.
	NonComplianceMultiplier float64
	// FixedItems are added to every estimate before ROI is computed.
	FixedItems []Item
}

// Rate constants
const (
	HourlyRate      = 150.0
	DefaultCurrency = "USD"
)

// Effort hours per recommendation effort level
var EffortHours = map[string]float64{
	"low":    4,
	"medium": 16,
	"high":   40,
}

// StandardModel is used for reports built from per-document validation
var StandardModel = Model{
	Name:                    "standard",
	NonComplianceMultiplier: 3,
}

// PredictiveModel is used by the predictive monitoring path
var PredictiveModel = Model{
	Name:                    "predictive",
	NonComplianceMultiplier: 5,
	FixedItems: []Item{
		{Category: "Ongoing Compliance Monitoring", Amount: 10000, Description: "Continuous monitoring of regulatory changes and document drift"},
		{Category: "Training and Awareness", Amount: 15000, Description: "Staff training on updated compliance obligations"},
	},
}

// SizeMultiplier scales labour cost by organization headcount
func SizeMultiplier(size int) float64 {
	switch {
	case size > 1000:
		return 2.0
	case size > 100:
		return 1.5
	case size > 10:
		return 1.0
	default:
		return 0.5
	}
}
