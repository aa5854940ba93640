package regulatory

import "time"

// Impact levels of a regulatory change
const (
	ImpactLow      = "low"
	ImpactMedium   = "medium"
	ImpactHigh     = "high"
	ImpactCritical = "critical"
)

// Change is an upcoming change to a regulation
type Change struct {
	ID            string    `json:"id" yaml:"id"`
	Framework     string    `json:"framework" yaml:"framework"`
	Jurisdiction  string    `json:"jurisdiction" yaml:"jurisdiction"`
	Title         string    `json:"title" yaml:"title"`
	Summary       string    `json:"summary,omitempty" yaml:"summary"`
	Impact        string    `json:"impact" yaml:"impact"`
	EffectiveDate time.Time `json:"effective_date" yaml:"effective_date"`
	URI           string    `json:"uri,omitempty" yaml:"uri"`
}

// ImpactParams is the input to an impact prediction
type ImpactParams struct {
	OrganizationID    string    `json:"organization_id"`
	Industry          string    `json:"industry,omitempty"`
	Size              int       `json:"size"`
	Frameworks        []string  `json:"frameworks,omitempty"`
	Changes           []Change  `json:"changes"`
	CurrentCompliance float64   `json:"current_compliance"`
	Now               time.Time `json:"now"`
}
