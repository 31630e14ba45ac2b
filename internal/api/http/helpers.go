package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
	"github.com/bhavishya-khunger/aiformbuilder/internal/rbac"
)

func isAdmin(r *http.Request) bool {
	return rbac.RoleFromContext(r.Context()) == "admin"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses. Validation failures
// carry the offending question id so the client can point at the field.
func writeDomainError(w http.ResponseWriter, err error) {
	if ve, ok := form.IsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":       ve.Msg,
			"code":        ve.Code,
			"question_id": ve.QuestionID,
		})
		return
	}
	switch {
	case errors.Is(err, form.ErrFormNotFound),
		errors.Is(err, form.ErrQuestionNotFound),
		errors.Is(err, form.ErrResponseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, form.ErrFormNotAnswerable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, form.ErrAttemptExhausted):
		writeError(w, http.StatusForbidden, "multiple attempts not allowed")
	case errors.Is(err, form.ErrTimeLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}
