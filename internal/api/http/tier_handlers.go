package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
)

// UpgradeTierHandler applies a pending tier change once the payment
// collaborator confirms it. The portal never sees provider specifics,
// only the confirmation flag.
func UpgradeTierHandler(db *sql.DB, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		var req struct {
			Tier             string `json:"tier"`
			PaymentConfirmed bool   `json:"payment_confirmed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		known := false
		for _, t := range entitlement.Tiers() {
			if t == req.Tier {
				known = true
				break
			}
		}
		if !known {
			http.Error(w, "unknown tier", http.StatusBadRequest)
			return
		}
		if !req.PaymentConfirmed {
			http.Error(w, "payment not confirmed", http.StatusPaymentRequired)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET tier=$1 WHERE id=$2`, req.Tier, userID); err != nil {
			respondErr(w, err)
			return
		}
		events.Log(r.Context(), eventlog.TypeTierUpgraded, userID, map[string]string{"tier": req.Tier})
		respondJSON(w, http.StatusOK, entitlement.ResolveTier(req.Tier))
	}
}
