package http

import (
	"encoding/json"
	"net/http"

	"github.com/ocrp-academy/trainportal/internal/assistant"
	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
)

// AskAssistantHandler forwards a prompt to the study assistant. The
// collaborator's failures surface as a fallback string, never an error.
func AskAssistantHandler(svc *assistant.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier := auth.TierFromContext(r.Context())
		if !entitlement.HasFeature(tier, entitlement.FeatureAIAssistant) {
			http.Error(w, "the study assistant is not included in your plan", http.StatusForbidden)
			return
		}
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
			http.Error(w, "prompt required", http.StatusBadRequest)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"answer": svc.Ask(r.Context(), req.Prompt),
		})
	}
}
