package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, field string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Field:     field,
		RequestID: trace.RequestID(r),
	})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, budget.ErrDisparity):
		return http.StatusUnprocessableEntity
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, budget.ErrBudgetActive):
		return http.StatusConflict
	case errors.Is(err, services.ErrTransactionNotFound), errors.Is(err, budget.ErrNoBudget):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server-side failures are
// logged and their detail withheld from the body.
func respondError(w http.ResponseWriter, r *http.Request, err error, component, operation string) {
	status := statusFor(err)
	field := ""
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
	}

	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, component, operation, nil)
		msg := "internal error"
		var serr *repository.StorageError
		if errors.As(err, &serr) {
			msg = "failed to save changes"
		}
		writeError(w, r, status, msg, "")
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
		log.FieldOperation, operation,
		log.FieldStatusCode, status,
		log.FieldError, err)
	writeError(w, r, status, err.Error(), field)
}
