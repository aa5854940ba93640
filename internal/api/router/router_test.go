package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/api/handlers"
	"github.com/pratik-mahalle/lexaudit/internal/auth"
	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
	"github.com/pratik-mahalle/lexaudit/internal/services"
	"github.com/pratik-mahalle/lexaudit/internal/testutil"
)

const secret = "router-test-secret"

type fixture struct {
	handler http.Handler
	bus     *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testutil.Logger()
	db := testutil.NewTestDB(t)
	bus := events.NewBus(32, log)
	docs := testutil.NewMockDocumentRepository()
	orgs := testutil.NewMockOrganizationRepository()
	reports := testutil.NewMockComplianceRepository()

	engine := services.NewComplianceService(services.NewRuleRegistry(log), bus, log,
		services.ComplianceConfig{LoadBuiltins: true, ReportWorkers: 2},
		services.WithDocumentRepository(docs),
		services.WithOrganizationRepository(orgs),
		services.WithComplianceRepository(reports),
	)
	require.NoError(t, engine.Initialize(context.Background()))
	t.Cleanup(func() {
		engine.Close()
		bus.Close()
	})

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimit: 1000, RateBurst: 1000},
		Auth:   config.AuthConfig{JWTSecret: secret},
	}
	v := validator.New()
	h := &Handlers{
		Health:        handlers.NewHealthHandler(db, engine.Registry(), "test", log),
		Compliance:    handlers.NewComplianceHandler(engine, reports, docs, v, false, log),
		Rules:         handlers.NewRuleHandler(engine, rules.NewLoader(v, log), v, log),
		Documents:     handlers.NewDocumentHandler(docs, bus, v, log),
		Organizations: handlers.NewOrganizationHandler(orgs, bus, v, log),
		Events:        handlers.NewEventsHandler(bus, cfg.Server.AllowedOrigins, log),
	}
	return &fixture{handler: New(cfg, log, h), bus: bus}
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.MintToken("tester", role, "lexaudit", secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRouter_Access(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		method     string
		path       string
		role       string
		body       string
		wantStatus int
	}{
		{"liveness is public", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"readiness with builtins", http.MethodGet, "/readyz", "", "", http.StatusOK},
		{"metrics are public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"api needs a token", http.MethodGet, "/api/v1/rules", "", "", http.StatusUnauthorized},
		{"viewer reads rules", http.MethodGet, "/api/v1/rules", auth.RoleViewer, "", http.StatusOK},
		{"viewer cannot validate", http.MethodPost, "/api/v1/compliance/validate", auth.RoleViewer,
			`{"document":{"title":"t","type":"nda","content":"x"}}`, http.StatusForbidden},
		{"auditor validates", http.MethodPost, "/api/v1/compliance/validate", auth.RoleAuditor,
			`{"document":{"title":"t","type":"nda","content":"x"}}`, http.StatusOK},
		{"auditor cannot delete rules", http.MethodDelete, "/api/v1/rules/anything", auth.RoleAuditor, "", http.StatusForbidden},
		{"admin deletes unknown rule", http.MethodDelete, "/api/v1/rules/anything", auth.RoleAdmin, "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/v1/nothing", auth.RoleAdmin, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+bearer(t, tt.role))
			}
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_EventStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/v1/events/ws?events=" + events.RegulationsUpdated + "&access_token=" + bearer(t, auth.RoleViewer)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	var msg handlers.StreamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg.Type)

	f.bus.Emit(events.OrganizationUpdated, events.OrganizationPayload{OrganizationID: "filtered-out"})
	f.bus.Emit(events.RegulationsUpdated, events.RegulationsPayload{Jurisdictions: []string{"EU"}})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, events.RegulationsUpdated, msg.Event)
}
