package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/validator"
)

// maxBodyBytes bounds request bodies; documents are submitted inline
const maxBodyBytes = 8 << 20

// ComplianceEngine is the part of the compliance service the API uses
type ComplianceEngine interface {
	compliance.Service
	GenerateReportForOrganization(ctx context.Context, organizationID string, predictive bool) (*compliance.Prediction, error)
}

// decodeJSON reads the request body into dst and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validator, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.Is(err, io.EOF):
			return errors.BadRequest("Request body is empty")
		case stderrors.As(err, &maxErr):
			return errors.New("PAYLOAD_TOO_LARGE", "Request body is too large", http.StatusRequestEntityTooLarge)
		default:
			return errors.BadRequest("Invalid request body: " + err.Error())
		}
	}

	return v.Check(dst)
}

// writeError writes err as the JSON error envelope and logs server-side failures
func writeError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	appErr := errors.As(err)
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		appErr = errors.New("REQUEST_CANCELLED", "Request was cancelled", http.StatusServiceUnavailable)
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.ErrorWithErr(err, msg)
	}
	utils.WriteError(w, appErr)
}

// splitQuery splits a comma separated query value
func splitQuery(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLimit reads ?limit= bounded to [1, max]
func parseLimit(r *http.Request, def, max int) int {
	limit := utils.ParseIntQuery(r.URL.Query().Get("limit"), def)
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
