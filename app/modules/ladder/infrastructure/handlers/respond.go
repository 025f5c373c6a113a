package ladderhandlers

import (
	"encoding/json"
	"errors"
	"net/http"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
)

// problem is the JSON error body of every failed request.
type problem struct {
	Error    string                            `json:"error"`
	Message  string                            `json:"message"`
	Field    string                            `json:"field,omitempty"`
	Decision *ladderdomain.EligibilityDecision `json:"decision,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, problem{Error: code, Message: message})
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without their text.
func (h *LadderHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *ladderservice.ValidationError
		eligibilityErr *ladderservice.EligibilityError
		invariantErr   *ladderservice.InvariantViolation
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, problem{
			Error:   "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
	case errors.Is(err, ladderservice.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &eligibilityErr):
		decision := eligibilityErr.Decision
		writeJSON(w, http.StatusUnprocessableEntity, problem{
			Error:    "not_eligible",
			Message:  decision.Message,
			Decision: &decision,
		})
	case errors.Is(err, ladderservice.ErrConcurrencyConflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &invariantErr):
		writeProblem(w, http.StatusForbidden, "forbidden", invariantErr.Message)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			attr.String("method", r.Method),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		writeProblem(w, http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError))
	}
}
