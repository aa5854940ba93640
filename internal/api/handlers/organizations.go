package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/lexaudit/internal/api/dto"
	"github.com/pratik-mahalle/lexaudit/internal/domain/organization"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
)

// OrganizationHandler handles organization requests
type OrganizationHandler struct {
	repo      organization.Repository
	bus       *events.Bus
	validator *validator.Validator
	logger    *logger.Logger
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(repo organization.Repository, bus *events.Bus, v *validator.Validator, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		repo:      repo,
		bus:       bus,
		validator: v,
		logger:    log,
	}
}

// Create handles POST /api/v1/organizations
// @Summary Create an organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param organization body dto.OrganizationRequest true "Organization"
// @Success 201 {object} organization.Organization
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/organizations [post]
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.OrganizationRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid organization")
		return
	}

	org := req.ToOrganization()
	if err := h.repo.Create(r.Context(), org); err != nil {
		writeError(w, h.logger, err, "Failed to create organization")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, org)
}

// List handles GET /api/v1/organizations
// @Summary List organizations
// @Tags Organizations
// @Produce json
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {array} organization.Organization
// @Security BearerAuth
// @Router /api/v1/organizations [get]
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePaginationParams(r)
	orgs, err := h.repo.List(r.Context(), page.PageSize, page.Offset)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list organizations")
		return
	}
	if orgs == nil {
		orgs = []*organization.Organization{}
	}
	utils.WriteSuccess(w, http.StatusOK, orgs)
}

// Get handles GET /api/v1/organizations/{id}
// @Summary Get an organization
// @Tags Organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} organization.Organization
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/organizations/{id} [get]
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get organization")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, org)
}

// Update handles PUT /api/v1/organizations/{id}. A successful update emits
// organization:updated so the engine regenerates the organization's report.
// @Summary Replace an organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param organization body dto.OrganizationRequest true "Organization"
// @Success 200 {object} organization.Organization
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/organizations/{id} [put]
func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.OrganizationRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid organization")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get organization")
		return
	}

	org := req.ToOrganization()
	org.ID = existing.ID
	org.CreatedAt = existing.CreatedAt
	if err := h.repo.Update(r.Context(), org); err != nil {
		writeError(w, h.logger, err, "Failed to update organization")
		return
	}

	if h.bus != nil {
		h.bus.Emit(events.OrganizationUpdated, events.OrganizationPayload{OrganizationID: org.ID})
	}
	utils.WriteSuccess(w, http.StatusOK, org)
}
