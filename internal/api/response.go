package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error codes
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRange        = "RANGE_ERROR"
	CodeEphemeris    = "EPHEMERIS_UNAVAILABLE"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, status int, message string, code ...string) error {
	errInfo := ErrorInfo{
		Message: message,
	}
	if len(code) > 0 {
		errInfo.Code = code[0]
	}

	return WriteJSON(w, status, Response{
		Success: false,
		Error:   &errInfo,
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message, CodeBadRequest)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, CodeInternal)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

// writeServiceError maps a conversion error onto a response. Range errors
// mean the engine was given too few events and are reported as 422.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, lunisolar.ErrSpanTooWide), errors.Is(err, lunisolar.ErrYearOutOfRange):
		WriteBadRequest(w, err.Error())
	case calendar.IsRangeError(err):
		logger.Warn(ctx, "conversion outside event range", "error", err)
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeRange)
	case errors.Is(err, astro.ErrOracleFailure):
		logger.Error(ctx, "ephemeris failure", err)
		WriteError(w, http.StatusServiceUnavailable, "Ephemeris unavailable", CodeEphemeris)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn(ctx, "request cancelled", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "Request cancelled", CodeUnavailable)
	default:
		logger.Error(ctx, "conversion failed", err)
		WriteInternalError(w, "Conversion failed")
	}
}
