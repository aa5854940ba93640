package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

func testRule(id, framework string, sev compliance.Severity) *compliance.FuncRule {
	return compliance.NewFuncRule(compliance.RuleInfo{
		RuleID:          id,
		RuleName:        id,
		RuleDescription: "test rule " + id,
		RuleFramework:   framework,
		RuleSeverity:    sev,
	}, nil)
}

func ruleIDs(rules []compliance.Rule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID())
	}
	return ids
}

func newTestRegistry() *RuleRegistry {
	return NewRuleRegistry(logger.New(logger.Config{Level: "disabled"}))
}

func TestRuleRegistry_RegisterPreservesOrder(t *testing.T) {
	reg := newTestRegistry()

	assert.False(t, reg.Register(testRule("a", "GDPR", compliance.SeverityError)))
	assert.False(t, reg.Register(testRule("b", "CCPA", compliance.SeverityWarning)))
	assert.False(t, reg.Register(testRule("c", "GDPR", compliance.SeverityInfo)))

	assert.Equal(t, []string{"a", "b", "c"}, ruleIDs(reg.All()))
	assert.Equal(t, []string{"a", "c"}, ruleIDs(reg.ByFramework("GDPR")))
	assert.Equal(t, []string{"b"}, ruleIDs(reg.ByFramework("CCPA")))
	assert.Equal(t, []string{"GDPR", "CCPA"}, reg.Frameworks())
	assert.Equal(t, 3, reg.Len())
}

func TestRuleRegistry_RegisterReplacesByID(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(testRule("a", "GDPR", compliance.SeverityError))
	reg.Register(testRule("b", "GDPR", compliance.SeverityError))

	replacement := testRule("a", "GDPR", compliance.SeverityCritical)
	assert.True(t, reg.Register(replacement))

	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, compliance.SeverityCritical, got.Severity())
	assert.Equal(t, []string{"a", "b"}, ruleIDs(reg.All()))
	assert.Equal(t, []string{"a", "b"}, ruleIDs(reg.ByFramework("GDPR")))
}

func TestRuleRegistry_AddKeepsExisting(t *testing.T) {
	reg := newTestRegistry()
	assert.True(t, reg.Add(testRule("a", "GDPR", compliance.SeverityError)))
	assert.True(t, reg.Add(testRule("b", "CCPA", compliance.SeverityWarning)))
	assert.False(t, reg.Add(testRule("a", "SOX", compliance.SeverityCritical)))

	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "GDPR", got.Framework())
	assert.Equal(t, compliance.SeverityError, got.Severity())
	assert.Equal(t, []string{"a", "b"}, ruleIDs(reg.All()))
	assert.Empty(t, reg.ByFramework("SOX"))
	assert.NotContains(t, reg.frameworkIndexSnapshot(), "SOX")
}

func TestRuleRegistry_AddConcurrentSameID(t *testing.T) {
	reg := newTestRegistry()

	var wg sync.WaitGroup
	var added atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Add(testRule("shared", "GDPR", compliance.SeverityInfo)) {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added.Load())
	assert.Equal(t, 1, reg.Len())
	assert.Len(t, reg.ByFramework("GDPR"), 1)
}

func TestRuleRegistry_ReplaceMovesFramework(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(testRule("a", "GDPR", compliance.SeverityError))
	reg.Register(testRule("a", "CCPA", compliance.SeverityError))

	idx := reg.frameworkIndexSnapshot()
	assert.NotContains(t, idx, "GDPR")
	assert.Equal(t, []string{"a"}, idx["CCPA"])
	assert.Empty(t, reg.ByFramework("GDPR"))
}

func TestRuleRegistry_Unregister(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		want       bool
		wantAll    []string
		wantFwKeys []string
	}{
		{
			name:       "removes last rule of framework and its key",
			id:         "b",
			want:       true,
			wantAll:    []string{"a", "c"},
			wantFwKeys: []string{"GDPR"},
		},
		{
			name:       "removes one of several",
			id:         "a",
			want:       true,
			wantAll:    []string{"b", "c"},
			wantFwKeys: []string{"GDPR", "HIPAA"},
		},
		{
			name:       "unknown id leaves registry unchanged",
			id:         "missing",
			want:       false,
			wantAll:    []string{"a", "b", "c"},
			wantFwKeys: []string{"GDPR", "HIPAA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry()
			reg.Register(testRule("a", "GDPR", compliance.SeverityError))
			reg.Register(testRule("b", "HIPAA", compliance.SeverityError))
			reg.Register(testRule("c", "GDPR", compliance.SeverityError))

			assert.Equal(t, tt.want, reg.Unregister(tt.id))
			assert.Equal(t, tt.wantAll, ruleIDs(reg.All()))

			idx := reg.frameworkIndexSnapshot()
			keys := make([]string, 0, len(idx))
			for k := range idx {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantFwKeys, keys)

			_, found := reg.Get(tt.id)
			assert.False(t, found)
		})
	}
}

func TestRuleRegistry_ByFrameworkUnknown(t *testing.T) {
	reg := newTestRegistry()
	got := reg.ByFramework("NOPE")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRuleRegistry_Select(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(testRule("g1", "GDPR", compliance.SeverityError))
	reg.Register(testRule("h1", "HIPAA", compliance.SeverityError))
	reg.Register(testRule("g2", "GDPR", compliance.SeverityError))
	reg.Register(testRule("s1", "SOX", compliance.SeverityError))

	tests := []struct {
		name       string
		frameworks []string
		want       []string
	}{
		{"no filter selects all", nil, []string{"g1", "h1", "g2", "s1"}},
		{"framework order then registration order", []string{"SOX", "GDPR"}, []string{"s1", "g1", "g2"}},
		{"repeated framework deduplicated", []string{"GDPR", "GDPR"}, []string{"g1", "g2"}},
		{"unknown framework selects nothing", []string{"PCI"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nilIfEmpty(ruleIDs(reg.Select(tt.frameworks))))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestRuleRegistry_ConcurrentAccess(t *testing.T) {
	reg := newTestRegistry()
	doc := &document.Document{ID: "d", Content: "x"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			reg.Register(testRule(id, "GDPR", compliance.SeverityInfo))
			if i%2 == 0 {
				reg.Unregister(id)
			}
		}(i)
		go func() {
			defer wg.Done()
			for _, r := range reg.Select([]string{"GDPR"}) {
				_, _ = r.Validate(doc, compliance.ValidationOptions{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, reg.Len())
	assert.Len(t, reg.ByFramework("GDPR"), 10)
}
