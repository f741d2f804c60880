package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/certificate"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
	"github.com/ocrp-academy/trainportal/internal/progress"
)

// IssueCertificateHandler returns the learner's completion certificate,
// creating it on first call. Subsequent calls return the identical
// certificate.
func IssueCertificateHandler(issuer *certificate.Issuer, ps progress.Store, as assessment.Store, db *sql.DB, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())

		var holder certificate.Holder
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&holder)
		}
		if holder.Name == "" {
			// fall back to the registered identity
			_ = db.QueryRowContext(r.Context(),
				`SELECT full_name, organization FROM users WHERE id=$1`, userID).
				Scan(&holder.Name, &holder.Organization)
		}

		p, ok, err := ps.Load(r.Context(), userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if !ok {
			p = progress.New(userID)
		}

		completedAt := finalCompletionTime(r, as, userID)
		c, err := issuer.Issue(r.Context(), p, holder, completedAt)
		if err != nil {
			respondErr(w, err)
			return
		}
		events.Log(r.Context(), eventlog.TypeCertificateIssued, userID, map[string]string{
			"certificate_id": c.CertificateID,
		})
		respondJSON(w, http.StatusOK, c)
	}
}

// finalCompletionTime finds when the learner submitted the final
// assessment. The issuance day comes from that submission, not from when
// the certificate happens to be rendered.
func finalCompletionTime(r *http.Request, as assessment.Store, userID string) time.Time {
	sessions, err := as.ListByUser(r.Context(), userID)
	if err == nil {
		for _, s := range sessions {
			if s.Kind == assessment.KindFinal && s.Terminal() && s.SubmittedAt > 0 {
				return time.Unix(s.SubmittedAt, 0)
			}
		}
	}
	return time.Now()
}
