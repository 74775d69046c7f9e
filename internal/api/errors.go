package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

const (
	codeMissingToken       = "MISSING_TOKEN"
	codeInvalidToken       = "INVALID_TOKEN"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInvalidEntry       = "INVALID_ENTRY"
	codeInvalidGranularity = "INVALID_GRANULARITY"
	codeInvalidCategory    = "INVALID_CATEGORY"
	codeInvalidDate        = "INVALID_DATE"
	codeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func abort(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		abort(c, http.StatusNotFound, "Not found", codeNotFound)
	case errors.Is(err, store.ErrInvalidEntry):
		abort(c, http.StatusBadRequest, err.Error(), codeInvalidEntry)
	case errors.Is(err, timesheet.ErrUnknownGranularity):
		abort(c, http.StatusBadRequest, err.Error(), codeInvalidGranularity)
	case errors.Is(err, timesheet.ErrUnknownCategory):
		abort(c, http.StatusBadRequest, err.Error(), codeInvalidCategory)
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		abort(c, http.StatusInternalServerError, "Internal server error", codeInternal)
	}
}
