package compliance

import "strings"

// Framework describes a regulatory regime known to the engine
type Framework struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Jurisdictions []string `json:"jurisdictions"`
	URI           string   `json:"uri,omitempty"`
}

// Framework constants
const (
	FrameworkGDPR    = "GDPR"
	FrameworkCCPA    = "CCPA"
	FrameworkHIPAA   = "HIPAA"
	FrameworkSOX     = "SOX"
	FrameworkGeneral = "GENERAL"
)

// KnownFrameworks returns the catalog of frameworks the built-in rules cover
func KnownFrameworks() []Framework {
	return []Framework{
		{
			ID:            FrameworkGDPR,
			Name:          "General Data Protection Regulation",
			Description:   "EU regulation on the processing of personal data and on the free movement of such data.",
			Jurisdictions: []string{"EU", "EEA"},
			URI:           "https://eur-lex.europa.eu/eli/reg/2016/679/oj",
		},
		{
			ID:            FrameworkCCPA,
			Name:          "California Consumer Privacy Act",
			Description:   "California statute granting consumers rights over personal information collected by businesses.",
			Jurisdictions: []string{"US-CA"},
			URI:           "https://oag.ca.gov/privacy/ccpa",
		},
		{
			ID:            FrameworkHIPAA,
			Name:          "Health Insurance Portability and Accountability Act",
			Description:   "US federal law setting standards for the protection of protected health information.",
			Jurisdictions: []string{"US"},
			URI:           "https://www.hhs.gov/hipaa/index.html",
		},
		{
			ID:            FrameworkSOX,
			Name:          "Sarbanes-Oxley Act",
			Description:   "US federal law on financial reporting and internal controls of public companies.",
			Jurisdictions: []string{"US"},
			URI:           "https://www.sec.gov/spotlight/sarbanes-oxley.htm",
		},
		{
			ID:            FrameworkGeneral,
			Name:          "General Contract Hygiene",
			Description:   "Drafting checks that apply to every legal document regardless of jurisdiction.",
			Jurisdictions: []string{"*"},
		},
	}
}

// LookupFramework finds a known framework by id, case-insensitively
func LookupFramework(id string) (Framework, bool) {
	for _, f := range KnownFrameworks() {
		if strings.EqualFold(f.ID, id) {
			return f, true
		}
	}
	return Framework{}, false
}

// CanonicalFramework returns the registry key for a framework id. Known
// frameworks resolve to their catalog id, others are upper-cased.
func CanonicalFramework(id string) string {
	if f, ok := LookupFramework(id); ok {
		return f.ID
	}
	return strings.ToUpper(strings.TrimSpace(id))
}

// CanonicalFrameworks applies CanonicalFramework to every id
func CanonicalFrameworks(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = CanonicalFramework(id)
	}
	return out
}
