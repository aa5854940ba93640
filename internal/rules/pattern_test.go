package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
)

func TestLineIndex_Position(t *testing.T) {
	idx := newLineIndex("first line\nsecond\n\nfourth é line")

	tests := []struct {
		name   string
		offset int
		want   compliance.Position
	}{
		{"start", 0, compliance.Position{Line: 0, Character: 0}},
		{"inside first line", 6, compliance.Position{Line: 0, Character: 6}},
		{"start of second line", 11, compliance.Position{Line: 1, Character: 0}},
		{"empty third line", 18, compliance.Position{Line: 2, Character: 0}},
		{"counts runes not bytes", 28, compliance.Position{Line: 3, Character: 8}},
		{"clamped past end", 1000, compliance.Position{Line: 3, Character: 13}},
		{"clamped before start", -5, compliance.Position{Line: 0, Character: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.position(tt.offset))
		})
	}
}

func TestDefinition_Compile(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{
			name: "valid required rule",
			def:  Definition{ID: "r", Name: "R", Framework: "GDPR", Severity: "error", Required: []string{"consent"}},
		},
		{
			name: "severity is case-insensitive",
			def:  Definition{ID: "r", Name: "R", Framework: "GDPR", Severity: "WARNING", Forbidden: []string{"x"}},
		},
		{
			name:    "no patterns",
			def:     Definition{ID: "r", Name: "R", Framework: "GDPR", Severity: "error"},
			wantErr: true,
		},
		{
			name:    "bad severity",
			def:     Definition{ID: "r", Name: "R", Framework: "GDPR", Severity: "fatal", Required: []string{"x"}},
			wantErr: true,
		},
		{
			name:    "bad pattern",
			def:     Definition{ID: "r", Name: "R", Framework: "GDPR", Severity: "info", Required: []string{"(unclosed"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.def.Compile()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.def.ID, r.ID())
			assert.True(t, r.Severity().IsValid())
		})
	}
}

func TestDefinition_CompileCanonicalizesFramework(t *testing.T) {
	tests := []struct {
		framework string
		want      string
	}{
		{"gdpr", compliance.FrameworkGDPR},
		{"Hipaa", compliance.FrameworkHIPAA},
		{"general", compliance.FrameworkGeneral},
		{" pci-dss ", "PCI-DSS"},
	}

	for _, tt := range tests {
		t.Run(tt.framework, func(t *testing.T) {
			def := Definition{ID: "r", Name: "R", Framework: tt.framework, Severity: "info", Required: []string{"x"}}
			r, err := def.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Framework())
			assert.Equal(t, tt.want, r.Definition().Framework)
		})
	}
}

func TestPatternRule_Validate(t *testing.T) {
	rule := Definition{
		ID:            "acme-consent",
		Name:          "Consent",
		Description:   "Consent must be mentioned",
		Framework:     "GDPR",
		Severity:      "error",
		Required:      []string{`\bconsent\b`},
		Forbidden:     []string{`\bforever\b`},
		DocumentTypes: []string{document.TypePrivacyPolicy},
		Jurisdictions: []string{"EU"},
		Section:       "Art. 7",
		URI:           "https://gdpr-info.eu/art-7-gdpr/",
	}.MustCompile()

	t.Run("compliant document", func(t *testing.T) {
		doc := &document.Document{Type: document.TypePrivacyPolicy, Content: "We ask for your Consent."}
		issues, err := rule.Validate(doc, compliance.ValidationOptions{})
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("missing and forbidden wording", func(t *testing.T) {
		doc := &document.Document{
			Type:    document.TypePrivacyPolicy,
			Content: "Privacy Policy\nWe keep data forever.\nReally forever.",
		}
		issues, err := rule.Validate(doc, compliance.ValidationOptions{Jurisdictions: []string{"eu"}})
		require.NoError(t, err)
		require.Len(t, issues, 3)

		assert.Equal(t, "acme-consent", issues[0].ID)
		assert.Equal(t, compliance.Location{
			Start: compliance.Position{Line: 0, Character: 0},
			End:   compliance.Position{Line: 0, Character: 14},
		}, *issues[0].Location)

		assert.Equal(t, "acme-consent-2", issues[1].ID)
		assert.Equal(t, compliance.Position{Line: 1, Character: 13}, issues[1].Location.Start)
		assert.Equal(t, compliance.Position{Line: 1, Character: 20}, issues[1].Location.End)
		assert.Equal(t, "acme-consent-3", issues[2].ID)
		assert.Equal(t, 2, issues[2].Location.Start.Line)

		for _, is := range issues {
			assert.Equal(t, compliance.SeverityError, is.Severity)
			require.NotNil(t, is.RegulatoryReference)
			assert.Equal(t, "GDPR", is.RegulatoryReference.Framework)
			assert.Equal(t, "Art. 7", is.RegulatoryReference.Section)
			assert.Equal(t, "https://gdpr-info.eu/art-7-gdpr/", is.RegulatoryReference.URI)
		}
	})

	t.Run("other document type is skipped", func(t *testing.T) {
		doc := &document.Document{Type: document.TypeNDA, Content: "forever"}
		issues, err := rule.Validate(doc, compliance.ValidationOptions{})
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("other jurisdiction is skipped", func(t *testing.T) {
		doc := &document.Document{Type: document.TypePrivacyPolicy, Content: "forever"}
		issues, err := rule.Validate(doc, compliance.ValidationOptions{Jurisdictions: []string{"US"}})
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := rule.Validate(nil, compliance.ValidationOptions{})
		assert.Error(t, err)
	})
}
