package http

import (
	"net/http"

	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
)

// GetEntitlementsHandler returns the caller's resolved capability set.
func GetEntitlementsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier := auth.TierFromContext(r.Context())
		respondJSON(w, http.StatusOK, entitlement.ResolveTier(tier))
	}
}

// ListTiersHandler returns the public tier catalog for the pricing page.
func ListTiersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]entitlement.Descriptor, 0, 3)
		for _, id := range entitlement.Tiers() {
			out = append(out, entitlement.ResolveTier(id))
		}
		respondJSON(w, http.StatusOK, out)
	}
}
