package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/lexaudit/internal/api/dto"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/document"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
)

// ComplianceHandler handles validation and reporting requests
type ComplianceHandler struct {
	engine        ComplianceEngine
	reports       compliance.Repository
	documents     document.Repository
	validator     *validator.Validator
	defaultStrict bool
	logger        *logger.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(
	engine ComplianceEngine,
	reports compliance.Repository,
	documents document.Repository,
	v *validator.Validator,
	defaultStrict bool,
	log *logger.Logger,
) *ComplianceHandler {
	return &ComplianceHandler{
		engine:        engine,
		reports:       reports,
		documents:     documents,
		validator:     v,
		defaultStrict: defaultStrict,
		logger:        log,
	}
}

// Validate handles POST /api/v1/compliance/validate
// @Summary Validate a document
// @Description Validate an inline document against the registered rules without storing it
// @Tags Compliance
// @Accept json
// @Produce json
// @Param request body dto.ValidateRequest true "Document and options"
// @Success 200 {object} compliance.ValidationResult
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/compliance/validate [post]
func (h *ComplianceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid validate request")
		return
	}

	doc := req.ToDocument()
	result, err := h.engine.ValidateDocument(r.Context(), doc, req.Options.ToOptions(doc.OrganizationID, h.defaultStrict))
	if err != nil {
		writeError(w, h.logger, err, "Failed to validate document")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}

// ValidateStored handles POST /api/v1/documents/{id}/validate
// @Summary Validate a stored document
// @Tags Compliance
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body dto.ValidationOptionsRequest false "Validation options"
// @Success 200 {object} compliance.ValidationResult
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/documents/{id}/validate [post]
func (h *ComplianceHandler) ValidateStored(w http.ResponseWriter, r *http.Request) {
	var opts dto.ValidationOptionsRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, h.validator, &opts); err != nil {
			writeError(w, h.logger, err, "Invalid validation options")
			return
		}
	}

	doc, err := h.documents.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to load document")
		return
	}

	result, err := h.engine.ValidateDocument(r.Context(), doc, opts.ToOptions(doc.OrganizationID, h.defaultStrict))
	if err != nil {
		writeError(w, h.logger, err, "Failed to validate document")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}

// ListResults handles GET /api/v1/documents/{id}/results
// @Summary Validation history of a document
// @Tags Compliance
// @Produce json
// @Param id path string true "Document ID"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {object} dto.ValidationResultList
// @Security BearerAuth
// @Router /api/v1/documents/{id}/results [get]
func (h *ComplianceHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	results, err := h.reports.ListResults(r.Context(), id, parseLimit(r, utils.DefaultPageSize, utils.MaxPageSize))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list validation results")
		return
	}
	if results == nil {
		results = []*compliance.ValidationResult{}
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ValidationResultList{DocumentID: id, Results: results})
}

// GenerateReport handles POST /api/v1/compliance/reports
// @Summary Generate an organization report
// @Description Validate every stored document of the organization and aggregate the results
// @Tags Compliance
// @Accept json
// @Produce json
// @Param request body dto.ReportRequest true "Organization"
// @Success 201 {object} compliance.Prediction
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/compliance/reports [post]
func (h *ComplianceHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, false)
}

// Predict handles POST /api/v1/compliance/predictions
// @Summary Generate a predictive organization report
// @Description Like a report, but folds in upcoming regulatory changes
// @Tags Compliance
// @Accept json
// @Produce json
// @Param request body dto.ReportRequest true "Organization"
// @Success 201 {object} compliance.Prediction
// @Security BearerAuth
// @Router /api/v1/compliance/predictions [post]
func (h *ComplianceHandler) Predict(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, true)
}

func (h *ComplianceHandler) generate(w http.ResponseWriter, r *http.Request, predictive bool) {
	var req dto.ReportRequest
	if err := decodeJSON(w, r, h.validator, &req); err != nil {
		writeError(w, h.logger, err, "Invalid report request")
		return
	}

	report, err := h.engine.GenerateReportForOrganization(r.Context(), req.OrganizationID, predictive)
	if err != nil {
		writeError(w, h.logger, err, "Failed to generate report")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, report)
}

// GetReport handles GET /api/v1/compliance/reports/{id}
// @Summary Get a stored report
// @Tags Compliance
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} compliance.Prediction
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/compliance/reports/{id} [get]
func (h *ComplianceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to load report")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, report)
}

// ListReports handles GET /api/v1/compliance/reports
// @Summary List stored reports
// @Tags Compliance
// @Produce json
// @Param organization_id query string false "Organization filter"
// @Param limit query int false "Maximum reports" default(20)
// @Success 200 {object} dto.ReportList
// @Security BearerAuth
// @Router /api/v1/compliance/reports [get]
func (h *ComplianceHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListReports(r.Context(), r.URL.Query().Get("organization_id"), parseLimit(r, utils.DefaultPageSize, utils.MaxPageSize))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list reports")
		return
	}

	resp := dto.ReportList{Reports: make([]dto.ReportSummary, 0, len(reports))}
	for _, p := range reports {
		resp.Reports = append(resp.Reports, dto.SummarizeReport(p))
	}
	utils.WriteSuccess(w, http.StatusOK, resp)
}
