// Package httputil holds the JSON response and request helpers shared by all
// HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "clanhub/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Fixed client-facing messages for server-side faults. Causes are logged,
// never returned.
const (
	detailInternal    = "Internal server error."
	detailUnavailable = "Store unavailable."
)

// Validatable is implemented by request DTOs that check their own fields.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request DTOs that trim or default fields
// before validation.
type Normalizable interface {
	Normalize()
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a status code and a {detail}
// body. Errors without a code are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	status, detail := translate(err)
	WriteJSON(w, status, ErrorResponse{Detail: detail})
}

func translate(err error) (int, string) {
	de, ok := dErrors.As(err)
	if !ok {
		return http.StatusInternalServerError, detailInternal
	}
	switch de.Code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest, de.Message
	case dErrors.CodeNotFound:
		return http.StatusNotFound, de.Message
	case dErrors.CodeConflict:
		return http.StatusConflict, de.Message
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable, detailUnavailable
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

// DecodeAndPrepare decodes a JSON body into T, then runs Normalize and
// Validate when T implements them. On failure it writes a 400 and returns
// false; callers just return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body."))
		return nil, false
	}
	if n, ok := any(&req).(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
