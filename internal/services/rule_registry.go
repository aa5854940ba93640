package services

import (
	"sync"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/metrics"
)

// RuleRegistry owns the registered rules and the framework index.
// All methods are safe for concurrent use.
type RuleRegistry struct {
	mu          sync.RWMutex
	rules       map[string]compliance.Rule
	order       []string
	byFramework map[string][]string
	logger      *logger.Logger
}

// NewRuleRegistry creates an empty registry
func NewRuleRegistry(log *logger.Logger) *RuleRegistry {
	if log == nil {
		log = logger.Nop()
	}
	return &RuleRegistry{
		rules:       make(map[string]compliance.Rule),
		byFramework: make(map[string][]string),
		logger:      log.Component("rule_registry"),
	}
}

// Register inserts rule, replacing any rule with the same id.
// It reports whether an existing rule was replaced.
func (r *RuleRegistry) Register(rule compliance.Rule) bool {
	id := rule.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	old, replaced := r.rules[id]
	if replaced {
		r.logger.WithFields(map[string]interface{}{
			"rule_id":   id,
			"framework": rule.Framework(),
		}).Warn("rule already registered, replacing")

		if old.Framework() != rule.Framework() {
			r.removeFromFramework(old.Framework(), id)
			r.byFramework[rule.Framework()] = append(r.byFramework[rule.Framework()], id)
		}
	} else {
		r.order = append(r.order, id)
		r.byFramework[rule.Framework()] = append(r.byFramework[rule.Framework()], id)
	}
	r.rules[id] = rule

	metrics.SetRegisteredRules(len(r.rules))
	return replaced
}

// Add inserts rule only when its id is free and reports whether it did.
// An existing rule with the same id is left in place.
func (r *RuleRegistry) Add(rule compliance.Rule) bool {
	id := rule.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; exists {
		return false
	}
	r.rules[id] = rule
	r.order = append(r.order, id)
	r.byFramework[rule.Framework()] = append(r.byFramework[rule.Framework()], id)

	metrics.SetRegisteredRules(len(r.rules))
	return true
}

// Unregister removes the rule with the given id. It returns false and
// leaves the registry untouched when no such rule exists.
func (r *RuleRegistry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok {
		return false
	}

	delete(r.rules, id)
	r.order = removeID(r.order, id)
	r.removeFromFramework(rule.Framework(), id)

	metrics.SetRegisteredRules(len(r.rules))
	return true
}

// removeFromFramework must be called with r.mu held for writing
func (r *RuleRegistry) removeFromFramework(framework, id string) {
	ids := removeID(r.byFramework[framework], id)
	if len(ids) == 0 {
		delete(r.byFramework, framework)
		return
	}
	r.byFramework[framework] = ids
}

// Get returns the rule registered under id
func (r *RuleRegistry) Get(id string) (compliance.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every rule in registration order
func (r *RuleRegistry) All() []compliance.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]compliance.Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// ByFramework returns the rules of one framework in registration order.
// Unknown frameworks yield an empty slice.
func (r *RuleRegistry) ByFramework(framework string) []compliance.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byFramework[framework]
	out := make([]compliance.Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rules[id])
	}
	return out
}

// Select returns the rules for the requested frameworks: all rules when
// frameworks is empty, otherwise the union in framework order, each rule once.
func (r *RuleRegistry) Select(frameworks []string) []compliance.Rule {
	if len(frameworks) == 0 {
		return r.All()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []compliance.Rule
	for _, fw := range frameworks {
		for _, id := range r.byFramework[fw] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, r.rules[id])
		}
	}
	return out
}

// Frameworks returns the frameworks that currently have rules, in the
// order they first received one
func (r *RuleRegistry) Frameworks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.byFramework))
	out := make([]string, 0, len(r.byFramework))
	for _, id := range r.order {
		fw := r.rules[id].Framework()
		if _, ok := seen[fw]; ok {
			continue
		}
		seen[fw] = struct{}{}
		out = append(out, fw)
	}
	return out
}

// Len returns the number of registered rules
func (r *RuleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...)
		}
	}
	return ids
}

// frameworkIndexSnapshot copies the framework index for inspection in tests
func (r *RuleRegistry) frameworkIndexSnapshot() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.byFramework))
	for k, v := range r.byFramework {
		out[k] = append([]string(nil), v...)
	}
	return out
}
