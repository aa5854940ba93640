package dto

import (
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
)

// OrganizationRequest creates or replaces an organization
type OrganizationRequest struct {
	ID                   string   `json:"id,omitempty" validate:"omitempty,max=128"`
	Name                 string   `json:"name" validate:"required,max=255"`
	Industry             string   `json:"industry,omitempty" validate:"max=128"`
	Size                 int      `json:"size" validate:"gte=0"`
	Jurisdictions        []string `json:"jurisdictions,omitempty" validate:"dive,required"`
	RegulatoryFrameworks []string `json:"regulatory_frameworks,omitempty" validate:"dive,required"`
	ContactEmail         string   `json:"contact_email,omitempty" validate:"omitempty,email"`
}

// ToOrganization converts the request into an organization
func (r OrganizationRequest) ToOrganization() *organization.Organization {
	return &organization.Organization{
		ID:                   r.ID,
		Name:                 r.Name,
		Industry:             r.Industry,
		Size:                 r.Size,
		Jurisdictions:        r.Jurisdictions,
		RegulatoryFrameworks: compliance.CanonicalFrameworks(r.RegulatoryFrameworks),
		ContactEmail:         r.ContactEmail,
	}
}
