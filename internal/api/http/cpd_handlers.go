package http

import (
	"encoding/json"
	"net/http"
	"time"

	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/cpd"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
)

func loadOrOpenLedger(r *http.Request, cs cpd.Store, userID string, req entitlement.CPDRequirement) (cpd.Hours, error) {
	h, ok, err := cs.Load(r.Context(), userID)
	if err != nil {
		return cpd.Hours{}, err
	}
	if !ok {
		h = cpd.NewHours(userID, time.Now().UTC(), req.RenewalPeriodMonths)
	}
	return h, nil
}

// GetCPDHandler reports the learner's standing against their tier's
// requirement. A zero-hour requirement always reads as fully satisfied.
func GetCPDHandler(cs cpd.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		req := entitlement.CPDRequirementFor(auth.TierFromContext(r.Context()))
		h, err := loadOrOpenLedger(r, cs, userID, req)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"hours":            h,
			"requirement":      req,
			"progress_percent": cpd.ProgressPercent(h, req),
			"remaining_hours":  cpd.RemainingHours(h, req),
			"categories_short": cpd.MeetsCategoryMinimums(h, req),
			"satisfied":        cpd.Satisfied(h, req),
			"category_caps":    cpd.Caps(),
		})
	}
}

// RecordCPDActivityHandler adds hours to the ledger. Submissions over a
// category's annual cap are rejected whole.
func RecordCPDActivityHandler(cs cpd.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		tier := auth.TierFromContext(r.Context())
		if !entitlement.HasFeature(tier, entitlement.FeatureCPDTracking) {
			http.Error(w, "CPD tracking is not included in your plan", http.StatusForbidden)
			return
		}
		var req struct {
			Category string  `json:"category"`
			Hours    float64 `json:"hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		cpdReq := entitlement.CPDRequirementFor(tier)
		h, err := loadOrOpenLedger(r, cs, userID, cpdReq)
		if err != nil {
			respondErr(w, err)
			return
		}
		h, err = cpd.RecordActivity(h, req.Category, req.Hours)
		if err != nil {
			respondErr(w, err)
			return
		}
		if err := cs.Save(r.Context(), h); err != nil {
			respondErr(w, err)
			return
		}
		events.Log(r.Context(), eventlog.TypeCPDActivityRecorded, userID, req)
		respondJSON(w, http.StatusOK, map[string]any{
			"hours":            h,
			"progress_percent": cpd.ProgressPercent(h, cpdReq),
		})
	}
}
