package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
)

// hclPack is the top-level shape of an HCL rule pack:
//
//	rule "acme-retention" {
//	  name      = "Retention period"
//	  framework = framework.gdpr
//	  severity  = severity.warning
//	  required  = ["retain(ed)? for"]
//	}
type hclPack struct {
	Rules []Definition `hcl:"rule,block"`
}

// yamlPack is the top-level shape of a YAML rule pack
type yamlPack struct {
	Rules []Definition `yaml:"rules"`
}

// Loader reads declarative rule packs from disk
type Loader struct {
	validator *validator.Validator
	logger    *logger.Logger
}

// NewLoader creates a rule pack loader
func NewLoader(v *validator.Validator, log *logger.Logger) *Loader {
	if v == nil {
		v = validator.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{validator: v, logger: log.Component("rule_loader")}
}

// LoadDir loads every *.hcl, *.yaml and *.yml file in dir, in name order.
// Rule ids must be unique across the directory.
func (l *Loader) LoadDir(dir string) ([]*PatternRule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	var out []*PatternRule
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isRulePack(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		loaded, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range loaded {
			if prev, dup := seen[r.ID()]; dup {
				return nil, errors.RuleInvalid(r.ID(), fmt.Errorf("defined in both %s and %s", prev, path))
			}
			seen[r.ID()] = path
			out = append(out, r)
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"dir":   dir,
		"rules": len(out),
	}).Info("Loaded rule packs")

	return out, nil
}

func isRulePack(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hcl", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile loads one rule pack, choosing the format from the extension
func (l *Loader) LoadFile(path string) ([]*PatternRule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule pack: %w", err)
	}

	var defs []Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		defs, err = ParseHCL(content, path)
	case ".yaml", ".yml":
		defs, err = ParseYAML(content)
	default:
		return nil, fmt.Errorf("unsupported rule pack format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return l.Compile(defs)
}

// Compile validates and compiles definitions
func (l *Loader) Compile(defs []Definition) ([]*PatternRule, error) {
	out := make([]*PatternRule, 0, len(defs))
	for _, def := range defs {
		r, err := l.CompileOne(def)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// CompileOne validates and compiles a single definition
func (l *Loader) CompileOne(def Definition) (*PatternRule, error) {
	if errs := l.validator.Validate(def); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return nil, errors.RuleInvalid(def.ID, fmt.Errorf("%s", strings.Join(msgs, "; "))).WithDetails(errs)
	}
	r, err := def.Compile()
	if err != nil {
		return nil, errors.RuleInvalid(def.ID, err)
	}
	return r, nil
}

// ParseHCL decodes rule blocks. Expressions may reference severity.<level>
// and framework.<id> (lower case).
func ParseHCL(src []byte, filename string) ([]Definition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parsing failed: %s", diags.Error())
	}

	var pack hclPack
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &pack); diags.HasErrors() {
		return nil, fmt.Errorf("HCL decoding failed: %s", diags.Error())
	}
	return pack.Rules, nil
}

// ParseYAML decodes a rules: list
func ParseYAML(src []byte) ([]Definition, error) {
	var pack yamlPack
	if err := yaml.Unmarshal(src, &pack); err != nil {
		return nil, fmt.Errorf("YAML decoding failed: %w", err)
	}
	return pack.Rules, nil
}

func evalContext() *hcl.EvalContext {
	severities := map[string]cty.Value{}
	for _, s := range []compliance.Severity{
		compliance.SeverityInfo,
		compliance.SeverityWarning,
		compliance.SeverityError,
		compliance.SeverityCritical,
	} {
		severities[string(s)] = cty.StringVal(string(s))
	}

	frameworks := map[string]cty.Value{}
	for _, f := range compliance.KnownFrameworks() {
		frameworks[strings.ToLower(f.ID)] = cty.StringVal(f.ID)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"severity":  cty.ObjectVal(severities),
			"framework": cty.ObjectVal(frameworks),
		},
	}
}
