package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/certificate"
	"github.com/ocrp-academy/trainportal/internal/cpd"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondErr maps domain error kinds onto HTTP statuses. Everything here
// is recoverable: the operation was refused and state is unchanged.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assessment.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, assessment.ErrAlreadySubmitted),
		errors.Is(err, assessment.ErrNoAttemptsRemaining):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assessment.ErrIncompleteAssessment),
		errors.Is(err, assessment.ErrQuestionIndex),
		errors.Is(err, assessment.ErrUnknownOption),
		errors.Is(err, cpd.ErrCategoryCapExceeded),
		errors.Is(err, cpd.ErrUnknownCategory),
		errors.Is(err, cpd.ErrInvalidHours):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, certificate.ErrNotEligible):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
