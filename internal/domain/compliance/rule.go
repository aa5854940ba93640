package compliance

import (
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

// Rule is a compliance rule that can be evaluated against a document.
// Validate must not retain or mutate the document.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Framework() string
	// Severity is the declared severity; emitted issues may differ.
	Severity() Severity
	Validate(doc *document.Document, opts ValidationOptions) ([]Issue, error)
}

// RuleInfo carries the descriptive part of a rule and is embedded by rule variants
type RuleInfo struct {
	RuleID          string   `json:"id" yaml:"id" validate:"required,max=128"`
	RuleName        string   `json:"name" yaml:"name" validate:"required"`
	RuleDescription string   `json:"description" yaml:"description"`
	RuleFramework   string   `json:"framework" yaml:"framework" validate:"required"`
	RuleSeverity    Severity `json:"severity" yaml:"severity" validate:"required,oneof=info warning error critical"`
}

func (r RuleInfo) ID() string          { return r.RuleID }
func (r RuleInfo) Name() string        { return r.RuleName }
func (r RuleInfo) Description() string { return r.RuleDescription }
func (r RuleInfo) Framework() string   { return r.RuleFramework }
func (r RuleInfo) Severity() Severity  { return r.RuleSeverity }

// Reference builds a regulatory reference pointing at this rule's framework
func (r RuleInfo) Reference(section string) *RegulatoryReference {
	return &RegulatoryReference{
		Framework:   r.RuleFramework,
		Section:     section,
		Description: r.RuleDescription,
	}
}

// ValidateFunc is the callback signature used by FuncRule
type ValidateFunc func(doc *document.Document, opts ValidationOptions) ([]Issue, error)

// FuncRule is a rule registered at runtime by a host, backed by a callback
type FuncRule struct {
	RuleInfo
	Fn ValidateFunc
}

// NewFuncRule creates a callback-backed rule
func NewFuncRule(info RuleInfo, fn ValidateFunc) *FuncRule {
	return &FuncRule{RuleInfo: info, Fn: fn}
}

// Validate runs the callback
func (r *FuncRule) Validate(doc *document.Document, opts ValidationOptions) ([]Issue, error) {
	if r.Fn == nil {
		return nil, nil
	}
	return r.Fn(doc, opts)
}

// Summary is a serializable view of a registered rule
type Summary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Framework   string   `json:"framework"`
	Severity    Severity `json:"severity"`
}

// Summarize returns the serializable view of r
func Summarize(r Rule) Summary {
	return Summary{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		Framework:   r.Framework(),
		Severity:    r.Severity(),
	}
}
