package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
	"github.com/pratik-mahalle/lexaudit/internal/services"
	"github.com/pratik-mahalle/lexaudit/internal/testutil"
)

type testEnv struct {
	router  chi.Router
	engine  *services.ComplianceService
	bus     *events.Bus
	docs    *testutil.MockDocumentRepository
	orgs    *testutil.MockOrganizationRepository
	reports *testutil.MockComplianceRepository
}

// placeholderRule warns about "[TBD]" markers
func placeholderRule() *compliance.FuncRule {
	info := compliance.RuleInfo{
		RuleID:        "no-placeholders",
		RuleName:      "No placeholders",
		RuleFramework: compliance.FrameworkGeneral,
		RuleSeverity:  compliance.SeverityWarning,
	}
	return compliance.NewFuncRule(info, func(doc *document.Document, _ compliance.ValidationOptions) ([]compliance.Issue, error) {
		if !bytes.Contains([]byte(doc.Content), []byte("[TBD]")) {
			return nil, nil
		}
		return []compliance.Issue{{
			ID:                  "placeholder",
			Severity:            compliance.SeverityWarning,
			Message:             "Unresolved placeholder",
			RegulatoryReference: info.Reference(""),
		}}, nil
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testutil.Logger()
	bus := events.NewBus(64, log)
	docs := testutil.NewMockDocumentRepository()
	orgs := testutil.NewMockOrganizationRepository()
	reports := testutil.NewMockComplianceRepository()

	engine := services.NewComplianceService(services.NewRuleRegistry(log), bus, log,
		services.ComplianceConfig{ReportWorkers: 2},
		services.WithClock(testutil.Clock()),
		services.WithDocumentRepository(docs),
		services.WithOrganizationRepository(orgs),
		services.WithComplianceRepository(reports),
	)
	require.NoError(t, engine.Initialize(context.Background()))
	require.True(t, engine.AddRule(placeholderRule()))
	t.Cleanup(func() {
		engine.Close()
		bus.Close()
	})

	v := validator.New()
	ch := NewComplianceHandler(engine, reports, docs, v, false, log)
	rh := NewRuleHandler(engine, rules.NewLoader(v, log), v, log)
	dh := NewDocumentHandler(docs, bus, v, log)
	oh := NewOrganizationHandler(orgs, bus, v, log)

	r := chi.NewRouter()
	r.Post("/compliance/validate", ch.Validate)
	r.Post("/compliance/reports", ch.GenerateReport)
	r.Get("/compliance/reports", ch.ListReports)
	r.Get("/compliance/reports/{id}", ch.GetReport)
	r.Post("/compliance/predictions", ch.Predict)
	r.Get("/rules", rh.List)
	r.Post("/rules", rh.Create)
	r.Get("/rules/frameworks", rh.Frameworks)
	r.Delete("/rules/{id}", rh.Delete)
	r.Post("/documents", dh.Create)
	r.Get("/documents", dh.List)
	r.Get("/documents/{id}", dh.Get)
	r.Put("/documents/{id}", dh.Update)
	r.Delete("/documents/{id}", dh.Delete)
	r.Post("/documents/{id}/validate", ch.ValidateStored)
	r.Get("/documents/{id}/results", ch.ListResults)
	r.Post("/organizations", oh.Create)
	r.Get("/organizations/{id}", oh.Get)
	r.Put("/organizations/{id}", oh.Update)

	return &testEnv{router: r, engine: engine, bus: bus, docs: docs, orgs: orgs, reports: reports}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestComplianceHandler_Validate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
		wantScore  float64
		wantIssues int
	}{
		{
			name: "clean document",
			body: map[string]interface{}{
				"document": map[string]interface{}{"title": "NDA", "type": "nda", "content": "Signed."},
			},
			wantStatus: http.StatusOK,
			wantScore:  1.0,
		},
		{
			name: "document with placeholder",
			body: map[string]interface{}{
				"document": map[string]interface{}{"title": "NDA", "type": "nda", "content": "Party: [TBD]"},
				"options":  map[string]interface{}{"frameworks": []string{"GENERAL"}},
			},
			wantStatus: http.StatusOK,
			wantScore:  0.7,
			wantIssues: 1,
		},
		{
			name: "lower-case framework filter",
			body: map[string]interface{}{
				"document": map[string]interface{}{"title": "NDA", "type": "nda", "content": "Party: [TBD]"},
				"options":  map[string]interface{}{"frameworks": []string{"general"}},
			},
			wantStatus: http.StatusOK,
			wantScore:  0.7,
			wantIssues: 1,
		},
		{
			name: "framework without rules",
			body: map[string]interface{}{
				"document": map[string]interface{}{"title": "NDA", "type": "nda", "content": "Party: [TBD]"},
				"options":  map[string]interface{}{"frameworks": []string{"hipaa"}},
			},
			wantStatus: http.StatusOK,
			wantScore:  1.0,
		},
		{
			name:       "missing title",
			body:       map[string]interface{}{"document": map[string]interface{}{"type": "nda"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "malformed json",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "unknown field",
			body:       `{"document":{"title":"a","type":"nda"},"extra":true}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/compliance/validate", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			var result compliance.ValidationResult
			resp := decode(t, rr, &result)
			if tt.wantCode != "" {
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			assert.Len(t, result.Issues, tt.wantIssues)
		})
	}
}

func TestComplianceHandler_ValidateStoredAndResults(t *testing.T) {
	env := newTestEnv(t)
	doc := &document.Document{ID: "doc-1", Title: "MSA", Type: document.TypeContract, Content: "Fee: [TBD]"}
	require.NoError(t, env.docs.Create(context.Background(), doc))

	rr := env.do(t, http.MethodPost, "/documents/doc-1/validate", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var result compliance.ValidationResult
	decode(t, rr, &result)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.True(t, result.IsCompliant, "warnings pass outside strict mode")

	rr = env.do(t, http.MethodPost, "/documents/doc-1/validate", map[string]interface{}{"strict_mode": true})
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &result)
	assert.False(t, result.IsCompliant)

	rr = env.do(t, http.MethodGet, "/documents/doc-1/results?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		DocumentID string                         `json:"document_id"`
		Results    []*compliance.ValidationResult `json:"results"`
	}
	decode(t, rr, &list)
	assert.Len(t, list.Results, 1)

	rr = env.do(t, http.MethodPost, "/documents/missing/validate", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestComplianceHandler_Reports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.orgs.Create(ctx, &organization.Organization{ID: "org-1", Name: "Acme", Size: 50}))
	require.NoError(t, env.orgs.Create(ctx, &organization.Organization{ID: "org-empty", Name: "Empty"}))
	require.NoError(t, env.docs.Create(ctx, &document.Document{ID: "d1", OrganizationID: "org-1", Title: "a", Type: "nda", Content: "ok"}))
	require.NoError(t, env.docs.Create(ctx, &document.Document{ID: "d2", OrganizationID: "org-1", Title: "b", Type: "nda", Content: "[TBD]"}))

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantModel  string
	}{
		{"standard report", "/compliance/reports", map[string]string{"organization_id": "org-1"}, http.StatusCreated, compliance.ModelStandard},
		{"predictive report", "/compliance/predictions", map[string]string{"organization_id": "org-1"}, http.StatusCreated, compliance.ModelPredictive},
		{"unknown organization", "/compliance/reports", map[string]string{"organization_id": "nope"}, http.StatusNotFound, ""},
		{"organization without documents", "/compliance/reports", map[string]string{"organization_id": "org-empty"}, http.StatusBadRequest, ""},
		{"missing organization id", "/compliance/reports", map[string]string{}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantModel == "" {
				return
			}
			var report compliance.Prediction
			decode(t, rr, &report)
			assert.Equal(t, tt.wantModel, report.Model)
			assert.Equal(t, "org-1", report.OrganizationID)
			assert.InDelta(t, 0.85, report.CurrentCompliance, 1e-9)
			assert.Len(t, report.Documents, 2)
		})
	}

	rr := env.do(t, http.MethodGet, "/compliance/reports?organization_id=org-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Reports []struct {
			ID    string `json:"id"`
			Model string `json:"model"`
		} `json:"reports"`
	}
	decode(t, rr, &list)
	require.Len(t, list.Reports, 2)

	rr = env.do(t, http.MethodGet, "/compliance/reports/"+list.Reports[0].ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/compliance/reports/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRuleHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	def := rules.Definition{
		ID:        "gdpr-dpo-contact",
		Name:      "DPO contact",
		Framework: "gdpr",
		Severity:  "warning",
		Required:  []string{`data protection officer`},
	}

	rr := env.do(t, http.MethodPost, "/rules", def)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created compliance.Summary
	resp := decode(t, rr, &created)
	assert.Equal(t, "Rule gdpr-dpo-contact registered", resp.Message)
	assert.Equal(t, compliance.FrameworkGDPR, created.Framework)

	dup := def
	dup.Name = "Replacement"
	dup.Framework = compliance.FrameworkSOX
	rr = env.do(t, http.MethodPost, "/rules", dup)
	assert.Equal(t, http.StatusConflict, rr.Code)

	kept, ok := env.engine.Registry().Get("gdpr-dpo-contact")
	require.True(t, ok)
	assert.Equal(t, "DPO contact", kept.Name())
	assert.Equal(t, compliance.FrameworkGDPR, kept.Framework())
	assert.Empty(t, env.engine.GetRulesByFramework(compliance.FrameworkSOX))

	bad := def
	bad.ID = "bad-regexp"
	bad.Required = []string{"("}
	rr = env.do(t, http.MethodPost, "/rules", bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/rules?framework=GDPR", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Rules []compliance.Summary `json:"rules"`
		Total int                  `json:"total"`
	}
	decode(t, rr, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "gdpr-dpo-contact", list.Rules[0].ID)

	rr = env.do(t, http.MethodGet, "/rules?framework=gdpr", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &list)
	assert.Equal(t, 1, list.Total)

	rr = env.do(t, http.MethodGet, "/rules/frameworks", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var frameworks []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Rules int    `json:"rules"`
	}
	decode(t, rr, &frameworks)
	require.Len(t, frameworks, 2)
	assert.Equal(t, "GDPR", frameworks[0].ID)
	assert.Equal(t, "General Data Protection Regulation", frameworks[0].Name)
	assert.Equal(t, "GENERAL", frameworks[1].ID)

	rr = env.do(t, http.MethodDelete, "/rules/gdpr-dpo-contact", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, "/rules/gdpr-dpo-contact", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, env.engine.GetRulesByFramework(compliance.FrameworkGDPR), 0)
}

func TestDocumentHandler_SaveTriggersValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/documents", map[string]interface{}{
		"id": "doc-9", "title": "Policy", "type": "privacy_policy", "content": "[TBD]", "organization_id": "org-1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	require.Eventually(t, func() bool { return env.reports.ResultCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	rr = env.do(t, http.MethodPut, "/documents/doc-9", map[string]interface{}{
		"title": "Policy v2", "type": "privacy_policy", "content": "done",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated document.Document
	decode(t, rr, &updated)
	assert.Equal(t, "doc-9", updated.ID)
	assert.Equal(t, "Policy v2", updated.Title)

	require.Eventually(t, func() bool { return env.reports.ResultCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	rr = env.do(t, http.MethodGet, "/documents?type=privacy_policy", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Data       []document.Document `json:"data"`
		TotalItems int64               `json:"total_items"`
	}
	decode(t, rr, &page)
	assert.Equal(t, int64(1), page.TotalItems)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/documents/doc-9", nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/documents/doc-9", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/documents/doc-9", nil).Code)

	rr = env.do(t, http.MethodPost, "/documents", map[string]interface{}{"title": "x", "type": "nda", "status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/documents?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rr, nil).Error.Code)
}

func TestOrganizationHandler_UpdateEmitsEvent(t *testing.T) {
	env := newTestEnv(t)

	got := make(chan events.Event, 1)
	sub := env.bus.On(events.OrganizationUpdated, func(ev events.Event) { got <- ev })
	defer env.bus.Off(sub)

	rr := env.do(t, http.MethodPost, "/organizations", map[string]interface{}{
		"name": "Acme", "size": 20, "jurisdictions": []string{"EU"}, "contact_email": "legal@acme.test",
		"regulatory_frameworks": []string{"gdpr", "General"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var org organization.Organization
	decode(t, rr, &org)
	require.NotEmpty(t, org.ID)
	assert.Equal(t, []string{compliance.FrameworkGDPR, compliance.FrameworkGeneral}, org.RegulatoryFrameworks)

	rr = env.do(t, http.MethodPut, fmt.Sprintf("/organizations/%s", org.ID), map[string]interface{}{
		"name": "Acme GmbH", "size": 25,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	select {
	case ev := <-got:
		assert.Equal(t, org.ID, ev.Payload.(events.OrganizationPayload).OrganizationID)
	case <-time.After(2 * time.Second):
		t.Fatal("organization:updated was not emitted")
	}

	rr = env.do(t, http.MethodPost, "/organizations", map[string]interface{}{"name": "Bad", "contact_email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/organizations/missing", nil).Code)
}
