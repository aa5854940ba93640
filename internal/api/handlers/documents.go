package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/lexaudit/internal/api/dto"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
)

// DocumentHandler handles document storage requests. Saving a document
// emits document.saved, which triggers validation in the engine.
type DocumentHandler struct {
	repo      document.Repository
	bus       *events.Bus
	validator *validator.Validator
	logger    *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(repo document.Repository, bus *events.Bus, v *validator.Validator, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		repo:      repo,
		bus:       bus,
		validator: v,
		logger:    log,
	}
}

// Create handles POST /api/v1/documents
// @Summary Store a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param document body dto.DocumentRequest true "Document"
// @Success 201 {object} document.Document
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.DocumentRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid document")
		return
	}

	doc := req.ToDocument()
	doc.ID = req.ID
	if err := h.repo.Create(r.Context(), doc); err != nil {
		writeError(w, h.logger, err, "Failed to create document")
		return
	}

	h.saved(doc)
	utils.WriteSuccess(w, http.StatusCreated, doc)
}

// List handles GET /api/v1/documents
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param organization_id query string false "Organization filter"
// @Param type query string false "Document type filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} utils.PaginatedResponse
// @Security BearerAuth
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.validator.ValidateVar(q.Get("status"), dto.DocumentStatusTag); err != nil {
		writeError(w, h.logger, errors.BadRequest("Invalid status filter: "+q.Get("status")), "Invalid document filter")
		return
	}
	filter := dto.DocumentListRequest{
		OrganizationID: q.Get("organization_id"),
		Type:           q.Get("type"),
		Status:         q.Get("status"),
	}.Filter()
	page := utils.ParsePaginationParams(r)

	docs, total, err := h.repo.List(r.Context(), filter, page.PageSize, page.Offset)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []*document.Document{}
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(docs, page.Page, page.PageSize, total))
}

// Get handles GET /api/v1/documents/{id}
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} document.Document
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get document")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, doc)
}

// Update handles PUT /api/v1/documents/{id}
// @Summary Replace a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param document body dto.DocumentRequest true "Document"
// @Success 200 {object} document.Document
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/documents/{id} [put]
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.DocumentRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid document")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get document")
		return
	}

	doc := req.ToDocument()
	doc.ID = existing.ID
	doc.Version = existing.Version
	doc.CreatedAt = existing.CreatedAt
	if doc.Status == "" {
		doc.Status = existing.Status
	}
	if err := h.repo.Update(r.Context(), doc); err != nil {
		writeError(w, h.logger, err, "Failed to update document")
		return
	}

	h.saved(doc)
	utils.WriteSuccess(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/documents/{id}
// @Summary Delete a document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err, "Failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) saved(doc *document.Document) {
	if h.bus == nil {
		return
	}
	h.bus.Emit(events.DocumentSaved, events.DocumentPayload{Document: doc})
}
