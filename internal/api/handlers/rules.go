package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/lexaudit/internal/api/dto"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/lexaudit/internal/rules"
)

// RuleHandler manages the rule registry
type RuleHandler struct {
	engine    ComplianceEngine
	loader    *rules.Loader
	validator *validator.Validator
	logger    *logger.Logger
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(engine ComplianceEngine, loader *rules.Loader, v *validator.Validator, log *logger.Logger) *RuleHandler {
	return &RuleHandler{
		engine:    engine,
		loader:    loader,
		validator: v,
		logger:    log,
	}
}

// List handles GET /api/v1/rules
// @Summary List registered rules
// @Tags Rules
// @Produce json
// @Param framework query string false "Framework filter"
// @Success 200 {object} dto.RuleList
// @Security BearerAuth
// @Router /api/v1/rules [get]
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	var registered []compliance.Rule
	if fw := r.URL.Query().Get("framework"); fw != "" {
		registered = h.engine.GetRulesByFramework(compliance.CanonicalFramework(fw))
	} else {
		registered = h.engine.GetAllRules()
	}

	resp := dto.RuleList{Rules: make([]compliance.Summary, 0, len(registered))}
	for _, rule := range registered {
		resp.Rules = append(resp.Rules, compliance.Summarize(rule))
	}
	sort.Slice(resp.Rules, func(i, j int) bool { return resp.Rules[i].ID < resp.Rules[j].ID })
	resp.Total = len(resp.Rules)

	utils.WriteSuccess(w, http.StatusOK, resp)
}

// Frameworks handles GET /api/v1/rules/frameworks
// @Summary List frameworks with registered rules
// @Tags Rules
// @Produce json
// @Success 200 {array} dto.FrameworkResponse
// @Security BearerAuth
// @Router /api/v1/rules/frameworks [get]
func (h *RuleHandler) Frameworks(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, rule := range h.engine.GetAllRules() {
		counts[compliance.CanonicalFramework(rule.Framework())]++
	}

	out := make([]dto.FrameworkResponse, 0, len(counts))
	for id, n := range counts {
		resp := dto.FrameworkResponse{ID: id, Rules: n}
		if f, ok := compliance.LookupFramework(id); ok {
			resp.Name = f.Name
			resp.Description = f.Description
			resp.Jurisdictions = f.Jurisdictions
			resp.URI = f.URI
		}
		out = append(out, resp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	utils.WriteSuccess(w, http.StatusOK, out)
}

// Create handles POST /api/v1/rules
// @Summary Register a pattern rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param rule body rules.Definition true "Rule definition"
// @Success 201 {object} compliance.Summary
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rules [post]
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var def rules.Definition
	if err := decodeJSON(w, r, h.validator, &def); err != nil {
		writeError(w, h.logger, err, "Invalid rule definition")
		return
	}

	rule, err := h.loader.CompileOne(def)
	if err != nil {
		writeError(w, h.logger, err, "Failed to compile rule")
		return
	}

	if !h.engine.AddRule(rule) {
		writeError(w, h.logger, errors.Conflict("A rule with id "+rule.ID()+" is already registered"), "Duplicate rule")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"rule_id":   rule.ID(),
		"framework": rule.Framework(),
	}).Info("Rule registered")

	utils.WriteSuccessWithMessage(w, http.StatusCreated, "Rule "+rule.ID()+" registered", compliance.Summarize(rule))
}

// Delete handles DELETE /api/v1/rules/{id}
// @Summary Unregister a rule
// @Tags Rules
// @Param id path string true "Rule ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rules/{id} [delete]
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.engine.UnregisterRule(id) {
		writeError(w, h.logger, errors.NotFound("Rule"), "Unknown rule")
		return
	}

	h.logger.With("rule_id", id).Info("Rule unregistered")
	w.WriteHeader(http.StatusNoContent)
}
