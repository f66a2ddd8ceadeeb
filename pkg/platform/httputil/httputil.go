// Package httputil centralizes JSON encoding and domain-error translation for
// HTTP handlers so every endpoint returns the same error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "caseflow/pkg/domain-errors"
)

// statusByCode maps domain error codes onto HTTP statuses. Codes absent from
// the map fall back to 500.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeNotFound:                    http.StatusNotFound,
	dErrors.CodeInvalidTransition:           http.StatusConflict,
	dErrors.CodeRequirementsNotMet:          http.StatusUnprocessableEntity,
	dErrors.CodeInvalidSubmissionTransition: http.StatusConflict,
	dErrors.CodeInvalidRole:                 http.StatusUnprocessableEntity,
	dErrors.CodeAlreadyLinked:               http.StatusConflict,
	dErrors.CodeVersionConflict:             http.StatusConflict,
	dErrors.CodeConflict:                    http.StatusConflict,
	dErrors.CodeBadRequest:                  http.StatusBadRequest,
	dErrors.CodeValidation:                  http.StatusBadRequest,
	dErrors.CodeInvariantViolation:          http.StatusConflict,
	dErrors.CodeUnauthorized:                http.StatusUnauthorized,
	dErrors.CodeForbidden:                   http.StatusForbidden,
	dErrors.CodeTimeout:                     http.StatusGatewayTimeout,
	dErrors.CodeInternal:                    http.StatusInternalServerError,
}

// ToHTTPStatus resolves the HTTP status for a domain error code.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorEnvelope struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteError renders err as the standard JSON error envelope. Internal errors
// deliberately omit the description so infrastructure detail never leaks to
// clients; everything else surfaces its message and structured details.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	envelope := errorEnvelope{Error: string(code)}

	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			envelope.ErrorDescription = de.Message
			envelope.Details = de.Details
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(envelope)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into T, logging and writing a bad_request
// envelope on failure. The boolean result tells the handler whether to
// continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "invalid request body", "error", err.Error())
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}
