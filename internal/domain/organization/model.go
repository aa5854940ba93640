package organization

import "time"

// Organization is the subject of organization-level compliance reports
type Organization struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name" validate:"required,max=255"`
	Industry             string    `json:"industry,omitempty"`
	Size                 int       `json:"size" validate:"gte=0"`
	Jurisdictions        []string  `json:"jurisdictions,omitempty"`
	RegulatoryFrameworks []string  `json:"regulatory_frameworks,omitempty"`
	ContactEmail         string    `json:"contact_email,omitempty" validate:"omitempty,email"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}
