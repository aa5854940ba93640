package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

var (
	euJurisdictions = []string{"EU", "EEA", "UK"}
	caJurisdictions = []string{"US", "US-CA"}
	usJurisdictions = []string{"US"}

	privacyDocuments  = []string{document.TypePrivacyPolicy, document.TypeDataProcessing}
	contractDocuments = []string{document.TypeContract, document.TypeNDA, document.TypeEmployment, document.TypeTermsOfService, document.TypeDataProcessing}
)

var builtinDefinitions = []Definition{
	{
		ID:            "gdpr-lawful-basis",
		Name:          "GDPR lawful basis",
		Description:   "Processing of personal data must state a lawful basis",
		Framework:     compliance.FrameworkGDPR,
		Severity:      string(compliance.SeverityError),
		Required:      []string{`\b(lawful|legal) basis\b|\blegitimate interests?\b|\bconsent\b`},
		DocumentTypes: privacyDocuments,
		Jurisdictions: euJurisdictions,
		Message:       "No lawful basis for processing personal data is stated",
		SuggestedFix:  "Name the Article 6 basis (consent, contract, legal obligation, vital interests, public task or legitimate interests) for each processing purpose.",
		Section:       "Art. 6",
		URI:           "https://gdpr-info.eu/art-6-gdpr/",
	},
	{
		ID:            "gdpr-data-subject-rights",
		Name:          "GDPR data subject rights",
		Description:   "Data subjects must be informed of their rights of access, rectification and erasure",
		Framework:     compliance.FrameworkGDPR,
		Severity:      string(compliance.SeverityError),
		Required:      []string{`\bright (to|of) (access|erasure|rectification|be forgotten|data portability)\b`},
		DocumentTypes: []string{document.TypePrivacyPolicy},
		Jurisdictions: euJurisdictions,
		Message:       "Data subject rights are not described",
		SuggestedFix:  "Add a section describing the rights of access, rectification, erasure, restriction, portability and objection and how to exercise them.",
		Section:       "Art. 12-22",
		URI:           "https://gdpr-info.eu/chapter-3/",
	},
	{
		ID:            "gdpr-international-transfers",
		Name:          "GDPR transfer safeguards",
		Description:   "Transfers of personal data outside the EEA need an adequacy decision or appropriate safeguards",
		Framework:     compliance.FrameworkGDPR,
		Severity:      string(compliance.SeverityWarning),
		Required:      []string{`\bstandard contractual clauses\b|\badequacy decision\b|\bbinding corporate rules\b`},
		DocumentTypes: []string{document.TypeDataProcessing},
		Jurisdictions: euJurisdictions,
		Message:       "No safeguard for international transfers is referenced",
		SuggestedFix:  "Reference the Standard Contractual Clauses or the adequacy decision relied on for transfers outside the EEA.",
		Section:       "Art. 46",
		URI:           "https://gdpr-info.eu/art-46-gdpr/",
	},
	{
		ID:            "ccpa-do-not-sell",
		Name:          "CCPA right to opt out",
		Description:   "Consumers must be told how to opt out of the sale or sharing of personal information",
		Framework:     compliance.FrameworkCCPA,
		Severity:      string(compliance.SeverityError),
		Required:      []string{`\bdo not (sell|share)\b|\bopt[- ]out of (the )?(sale|sharing)\b`},
		DocumentTypes: []string{document.TypePrivacyPolicy},
		Jurisdictions: caJurisdictions,
		Message:       "No \"Do Not Sell or Share My Personal Information\" notice",
		SuggestedFix:  "Add a Do Not Sell or Share notice with a link or contact method for opting out.",
		Section:       "Cal. Civ. Code 1798.120",
		URI:           "https://oag.ca.gov/privacy/ccpa",
	},
	{
		ID:            "hipaa-phi-safeguards",
		Name:          "HIPAA PHI safeguards",
		Description:   "Policies handling protected health information must describe technical safeguards",
		Framework:     compliance.FrameworkHIPAA,
		Severity:      string(compliance.SeverityCritical),
		Required:      []string{`\b(encrypt(ion|ed)?|access controls?|audit (logs?|controls?))\b`},
		DocumentTypes: []string{document.TypeHealthPolicy},
		Jurisdictions: usJurisdictions,
		Message:       "No technical safeguards for protected health information are described",
		SuggestedFix:  "Describe encryption, access control and audit controls applied to PHI.",
		Section:       "45 CFR 164.312",
		URI:           "https://www.law.cornell.edu/cfr/text/45/164.312",
	},
	{
		ID:            "sox-internal-controls",
		Name:          "SOX internal controls",
		Description:   "Financial reports must include management's assessment of internal control over financial reporting",
		Framework:     compliance.FrameworkSOX,
		Severity:      string(compliance.SeverityError),
		Required:      []string{`\binternal controls? over financial reporting\b`},
		DocumentTypes: []string{document.TypeFinancialReport},
		Jurisdictions: usJurisdictions,
		Message:       "No assessment of internal control over financial reporting",
		SuggestedFix:  "Include management's report on internal control over financial reporting.",
		Section:       "Section 404",
		URI:           "https://www.sec.gov/spotlight/sarbanes-oxley.htm",
	},
	{
		ID:            "general-governing-law",
		Name:          "Governing law clause",
		Description:   "Contracts should state which jurisdiction's law governs them",
		Framework:     compliance.FrameworkGeneral,
		Severity:      string(compliance.SeverityWarning),
		Required:      []string{`\bgoverning law\b|\bgoverned by (and construed in accordance with )?the laws? of\b`},
		DocumentTypes: contractDocuments,
		Message:       "No governing law clause",
		SuggestedFix:  "Add a clause naming the law that governs the agreement and the competent courts.",
		Section:       "Governing law",
	},
	{
		ID:           "general-placeholders",
		Name:         "Unresolved placeholders",
		Description:  "Documents must not contain template placeholders",
		Framework:    compliance.FrameworkGeneral,
		Severity:     string(compliance.SeverityError),
		Forbidden:    []string{`\[(TBD|TODO|PLACEHOLDER|INSERT[^\]]*)\]|\{\{[^}]*\}\}|_{5,}`},
		Message:      "Unresolved placeholder",
		SuggestedFix: "Replace the placeholder with the final wording.",
		Section:      "Drafting",
	},
	{
		ID:            "general-unlimited-liability",
		Name:          "Unlimited liability",
		Description:   "Liability should be capped; unlimited liability wording needs legal review",
		Framework:     compliance.FrameworkGeneral,
		Severity:      string(compliance.SeverityWarning),
		Forbidden:     []string{`\bunlimited liability\b|\bliability shall be unlimited\b`},
		DocumentTypes: contractDocuments,
		Message:       "Unlimited liability wording",
		SuggestedFix:  "Cap liability, for example at the fees paid in the preceding twelve months.",
		Section:       "Limitation of liability",
	},
}

// Builtin returns the rules loaded at engine start-up, in registration order
func Builtin() []compliance.Rule {
	out := make([]compliance.Rule, 0, len(builtinDefinitions)+1)
	for _, def := range builtinDefinitions {
		out = append(out, def.MustCompile())
	}
	out = append(out, NewEffectiveDateRule())
	return out
}

// EffectiveDateMetadataKey is the metadata key read by the effective date rule
const EffectiveDateMetadataKey = "effective_date"

var effectiveDatePattern = regexp.MustCompile(`(?i)\beffective (date|as of|from)\b`)

// EffectiveDateRule checks that contracts carry an effective date, either
// in metadata (YYYY-MM-DD) or in the text
type EffectiveDateRule struct {
	compliance.RuleInfo
}

// NewEffectiveDateRule creates the effective date rule
func NewEffectiveDateRule() *EffectiveDateRule {
	return &EffectiveDateRule{RuleInfo: compliance.RuleInfo{
		RuleID:          "general-effective-date",
		RuleName:        "Effective date",
		RuleDescription: "Agreements must state when they take effect",
		RuleFramework:   compliance.FrameworkGeneral,
		RuleSeverity:    compliance.SeverityWarning,
	}}
}

// Validate implements compliance.Rule
func (r *EffectiveDateRule) Validate(doc *document.Document, _ compliance.ValidationOptions) ([]compliance.Issue, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document")
	}
	if !containsFold(contractDocuments, doc.Type) {
		return nil, nil
	}

	idx := newLineIndex(doc.Content)

	if raw, ok := doc.Metadata[EffectiveDateMetadataKey]; ok && strings.TrimSpace(raw) != "" {
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(raw)); err != nil {
			return []compliance.Issue{{
				ID:                  r.RuleID,
				Severity:            compliance.SeverityError,
				Message:             fmt.Sprintf("Effective date metadata %q is not a valid YYYY-MM-DD date", raw),
				Location:            idx.headLocation(),
				RegulatoryReference: r.Reference("Effective date"),
				SuggestedFix:        "Set effective_date metadata in YYYY-MM-DD form.",
			}}, nil
		}
		return nil, nil
	}

	if effectiveDatePattern.MatchString(doc.Content) {
		return nil, nil
	}

	return []compliance.Issue{{
		ID:                  r.RuleID,
		Severity:            r.RuleSeverity,
		Message:             "No effective date is stated",
		Location:            idx.headLocation(),
		RegulatoryReference: r.Reference("Effective date"),
		SuggestedFix:        "State the date on which the agreement takes effect.",
	}}, nil
}
