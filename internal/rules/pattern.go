package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

// Definition is the declarative form of a pattern rule as written in
// HCL or YAML rule packs and accepted by the API
type Definition struct {
	ID            string   `hcl:"id,label" yaml:"id" json:"id" validate:"required,max=128"`
	Name          string   `hcl:"name" yaml:"name" json:"name" validate:"required"`
	Description   string   `hcl:"description,optional" yaml:"description" json:"description"`
	Framework     string   `hcl:"framework" yaml:"framework" json:"framework" validate:"required"`
	Severity      string   `hcl:"severity" yaml:"severity" json:"severity" validate:"required,oneof=info warning error critical"`
	Required      []string `hcl:"required,optional" yaml:"required" json:"required,omitempty" validate:"dive,required,regexp"`
	Forbidden     []string `hcl:"forbidden,optional" yaml:"forbidden" json:"forbidden,omitempty" validate:"dive,required,regexp"`
	DocumentTypes []string `hcl:"document_types,optional" yaml:"document_types" json:"document_types,omitempty"`
	Jurisdictions []string `hcl:"jurisdictions,optional" yaml:"jurisdictions" json:"jurisdictions,omitempty"`
	Message       string   `hcl:"message,optional" yaml:"message" json:"message,omitempty"`
	SuggestedFix  string   `hcl:"suggested_fix,optional" yaml:"suggested_fix" json:"suggested_fix,omitempty"`
	Section       string   `hcl:"section,optional" yaml:"section" json:"section,omitempty"`
	URI           string   `hcl:"uri,optional" yaml:"uri" json:"uri,omitempty"`
}

// PatternRule flags documents that lack required wording or contain
// forbidden wording. Patterns are case-insensitive unless they set flags.
type PatternRule struct {
	compliance.RuleInfo
	Required      []*regexp.Regexp
	Forbidden     []*regexp.Regexp
	DocumentTypes []string
	Jurisdictions []string
	Message       string
	SuggestedFix  string
	Section       string
	URI           string

	def Definition
}

// Compile turns a definition into a rule
func (d Definition) Compile() (*PatternRule, error) {
	if len(d.Required) == 0 && len(d.Forbidden) == 0 {
		return nil, fmt.Errorf("rule %s: at least one required or forbidden pattern is needed", d.ID)
	}
	sev := compliance.Severity(strings.ToLower(d.Severity))
	if !sev.IsValid() {
		return nil, fmt.Errorf("rule %s: unknown severity %q", d.ID, d.Severity)
	}

	required, err := compilePatterns(d.Required)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", d.ID, err)
	}
	forbidden, err := compilePatterns(d.Forbidden)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", d.ID, err)
	}
	d.Framework = compliance.CanonicalFramework(d.Framework)

	return &PatternRule{
		RuleInfo: compliance.RuleInfo{
			RuleID:          d.ID,
			RuleName:        d.Name,
			RuleDescription: d.Description,
			RuleFramework:   d.Framework,
			RuleSeverity:    sev,
		},
		Required:      required,
		Forbidden:     forbidden,
		DocumentTypes: d.DocumentTypes,
		Jurisdictions: d.Jurisdictions,
		Message:       d.Message,
		SuggestedFix:  d.SuggestedFix,
		Section:       d.Section,
		URI:           d.URI,
		def:           d,
	}, nil
}

// MustCompile is Compile for definitions known to be valid
func (d Definition) MustCompile() *PatternRule {
	r, err := d.Compile()
	if err != nil {
		panic(err)
	}
	return r
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if !strings.HasPrefix(p, "(?") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Definition returns the declarative form the rule was compiled from
func (r *PatternRule) Definition() Definition {
	return r.def
}

// Applies reports whether the rule is relevant for the document type and
// requested jurisdictions. Empty filters match everything.
func (r *PatternRule) Applies(doc *document.Document, opts compliance.ValidationOptions) bool {
	if len(r.DocumentTypes) > 0 && !containsFold(r.DocumentTypes, doc.Type) {
		return false
	}
	if len(r.Jurisdictions) > 0 && len(opts.Jurisdictions) > 0 {
		for _, j := range opts.Jurisdictions {
			if containsFold(r.Jurisdictions, j) {
				return true
			}
		}
		return false
	}
	return true
}

// Validate implements compliance.Rule
func (r *PatternRule) Validate(doc *document.Document, opts compliance.ValidationOptions) ([]compliance.Issue, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document")
	}
	if !r.Applies(doc, opts) {
		return nil, nil
	}

	idx := newLineIndex(doc.Content)
	var issues []compliance.Issue

	for _, re := range r.Required {
		if re.MatchString(doc.Content) {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("%s: required language not found", r.RuleName)
		}
		issues = append(issues, r.issue(len(issues), msg, idx.headLocation()))
	}

	for _, re := range r.Forbidden {
		for _, m := range re.FindAllStringIndex(doc.Content, -1) {
			msg := fmt.Sprintf("%s: %q is not permitted", r.RuleName, doc.Content[m[0]:m[1]])
			if r.Message != "" {
				msg = fmt.Sprintf("%s (%q)", r.Message, doc.Content[m[0]:m[1]])
			}
			issues = append(issues, r.issue(len(issues), msg, idx.location(m[0], m[1])))
		}
	}

	return issues, nil
}

func (r *PatternRule) issue(n int, msg string, loc *compliance.Location) compliance.Issue {
	ref := r.Reference(r.Section)
	ref.URI = r.URI
	id := r.RuleID
	if n > 0 {
		id = fmt.Sprintf("%s-%d", r.RuleID, n+1)
	}
	return compliance.Issue{
		ID:                  id,
		Severity:            r.RuleSeverity,
		Message:             msg,
		Location:            loc,
		RegulatoryReference: ref,
		SuggestedFix:        r.SuggestedFix,
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
