package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
)

// RuleCounter reports how many rules are registered
type RuleCounter interface {
	Len() int
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db      *sql.DB
	rules   RuleCounter
	version string
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, rules RuleCounter, version string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		rules:   rules,
		version: version,
		logger:  log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Description Check if the application is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Description Ready once the database answers and at least one rule is registered
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Application is ready"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database connection failed")
		return
	}

	registered := h.rules.Len()
	if registered == 0 {
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "No compliance rules are registered")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"database": "connected",
		"rules":    registered,
	})
}
