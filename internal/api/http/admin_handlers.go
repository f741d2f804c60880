package http

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ocrp-academy/trainportal/internal/cpd"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
	"github.com/ocrp-academy/trainportal/internal/progress"
	"github.com/ocrp-academy/trainportal/internal/report"
	"github.com/ocrp-academy/trainportal/internal/storage"
)

// CohortReportHandler builds the admin dashboard summary over every
// learner's progress aggregate. Read-only: aggregates are owned by their
// learners and only snapshotted here.
func CohortReportHandler(ps progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := report.Build(r.Context(), ps)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

// AuditSearchHandler queries the event log for recent portal events.
func AuditSearchHandler(events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := events.Search(r.Context(), r.URL.Query().Get("q"), 100)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// ExportLearnerHandler writes a learner's progress and CPD ledger to the
// snapshot store and returns the same payload as a downloadable JSON.
func ExportLearnerHandler(ps progress.Store, cs cpd.Store, snapshots *storage.FSStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		p, ok, err := ps.Load(r.Context(), userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if !ok {
			http.Error(w, "no progress recorded", http.StatusNotFound)
			return
		}
		h, _, err := cs.Load(r.Context(), userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		payload := map[string]any{"progress": p, "cpd": h}
		if err := snapshots.Save("exports/"+userID, payload); err != nil {
			respondErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", userID+".json"))
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// DeleteLearnerDataHandler removes all of one learner's records, for
// erasure requests.
func DeleteLearnerDataHandler(db *sql.DB, snapshots *storage.FSStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		for _, q := range []string{
			`DELETE FROM sessions WHERE user_id=$1`,
			`DELETE FROM user_progress WHERE user_id=$1`,
			`DELETE FROM cpd_hours WHERE user_id=$1`,
			`DELETE FROM certificates WHERE user_id=$1`,
			`DELETE FROM users WHERE id=$1 OR username=$1`,
		} {
			if _, err := tx.ExecContext(r.Context(), q, req.UserID); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		if err := tx.Commit(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// snapshot cleanup is best-effort
		_ = snapshots.Clear("exports/" + req.UserID)
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
