package http

import (
	"encoding/json"
	"net/http"

	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
	"github.com/ocrp-academy/trainportal/internal/progress"
)

func GetProgressHandler(ps progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		p, ok, err := ps.Load(r.Context(), userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if !ok {
			p = progress.New(userID)
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"progress":             p,
			"assessment_unlocked":  progress.AssessmentUnlocked(p),
			"certificate_eligible": progress.CertificateEligible(p),
		})
	}
}

// CompleteModuleHandler records a module completion and reports which
// section that unlocks.
func CompleteModuleHandler(ps progress.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		var req struct {
			ModuleID int `json:"module_id"`
			Score    int `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, ok, err := ps.Load(r.Context(), userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if !ok {
			p = progress.New(userID)
		}
		p, err = progress.CompleteModule(p, req.ModuleID, req.Score)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := ps.Save(r.Context(), p); err != nil {
			respondErr(w, err)
			return
		}
		next, _ := progress.NextSectionAfter(req.ModuleID)
		events.Log(r.Context(), eventlog.TypeModuleCompleted, userID, map[string]any{
			"module_id": req.ModuleID, "score": req.Score,
		})
		respondJSON(w, http.StatusOK, map[string]any{
			"progress":     p,
			"next_section": next,
		})
	}
}
