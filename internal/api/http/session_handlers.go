package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/bank"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
	"github.com/ocrp-academy/trainportal/internal/progress"
)

// sessionPayload is the learner-facing session shape: shuffled prompts
// and options, no answer keys, plus score fields once terminal.
type sessionPayload struct {
	ID            string                    `json:"id"`
	Kind          string                    `json:"kind"`
	Status        string                    `json:"status"`
	Questions     []assessment.QuestionView `json:"questions"`
	Answers       map[int]string            `json:"answers"`
	CanSubmit     bool                      `json:"can_submit"`
	AttemptNumber int                       `json:"attempt_number"`
	Deadline      int64                     `json:"deadline,omitempty"`
	Score         int                       `json:"score"`
	Passed        bool                      `json:"passed"`
}

func toPayload(s assessment.Session) sessionPayload {
	return sessionPayload{
		ID:            s.ID,
		Kind:          s.Kind,
		Status:        s.Status,
		Questions:     s.View(),
		Answers:       s.Answers,
		CanSubmit:     s.CanSubmit(),
		AttemptNumber: s.AttemptNumber,
		Deadline:      s.Deadline,
		Score:         s.Score,
		Passed:        s.Passed,
	}
}

// StartFinalHandler begins (or resumes) the certification assessment.
// All four modules must be completed first.
func StartFinalHandler(engine *assessment.Engine, catalog *bank.Catalog, ps progress.Store, events *eventlog.Repo) http.HandlerFunc {
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
		if !progress.AssessmentUnlocked(p) {
			http.Error(w, "complete all modules before the final assessment", http.StatusForbidden)
			return
		}
		s, err := engine.StartFinal(r.Context(), userID, catalog.All())
		if err != nil {
			respondErr(w, err)
			return
		}
		events.Log(r.Context(), eventlog.TypeAssessmentStarted, userID, map[string]string{"session_id": s.ID, "kind": s.Kind})
		respondJSON(w, http.StatusOK, toPayload(s))
	}
}

// StartPracticeHandler begins a timed practice sitting, gated on the
// learner's tier.
func StartPracticeHandler(engine *assessment.Engine, catalog *bank.Catalog, cfg assessment.PracticeConfig, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		tier := auth.TierFromContext(r.Context())
		if !entitlement.HasFeature(tier, entitlement.FeaturePracticeExam) {
			http.Error(w, "practice exams are not included in your plan", http.StatusForbidden)
			return
		}
		var req struct {
			ModuleID int `json:"module_id"` // 0 = whole bank
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		entries := catalog.All()
		if req.ModuleID != 0 {
			entries = catalog.ForModule(req.ModuleID)
			if len(entries) == 0 {
				http.Error(w, "unknown module", http.StatusBadRequest)
				return
			}
		}
		s, err := engine.StartPractice(r.Context(), userID, entries, cfg)
		if err != nil {
			respondErr(w, err)
			return
		}
		events.Log(r.Context(), eventlog.TypeAssessmentStarted, userID, map[string]string{"session_id": s.ID, "kind": s.Kind})
		respondJSON(w, http.StatusOK, toPayload(s))
	}
}

// ownsSession refuses access to sessions started by another learner.
func ownsSession(w http.ResponseWriter, r *http.Request, engine *assessment.Engine, id string) bool {
	s, err := engine.Get(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return false
	}
	if s.UserID != auth.SubjectFromContext(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func GetSessionHandler(engine *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondErr(w, err)
			return
		}
		if s.UserID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		respondJSON(w, http.StatusOK, toPayload(s))
	}
}

func SubmitAnswerHandler(engine *assessment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionIndex int    `json:"question_index"`
			ChosenOption  string `json:"chosen_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id := chi.URLParam(r, "sessionID")
		if !ownsSession(w, r, engine, id) {
			return
		}
		s, err := engine.SubmitAnswer(r.Context(), id, req.QuestionIndex, req.ChosenOption)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toPayload(s))
	}
}

// SubmitSessionHandler scores the session. A final session's outcome is
// archived into the learner's progress aggregate; the response stays on
// the result (no navigation side effects).
func SubmitSessionHandler(engine *assessment.Engine, ps progress.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		id := chi.URLParam(r, "sessionID")
		if !ownsSession(w, r, engine, id) {
			return
		}
		s, err := engine.Submit(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		if s.Kind == assessment.KindFinal {
			p, ok, err := ps.Load(r.Context(), userID)
			if err != nil {
				respondErr(w, err)
				return
			}
			if !ok {
				p = progress.New(userID)
			}
			p = progress.RecordAssessment(p, s.Result())
			if err := ps.Save(r.Context(), p); err != nil {
				respondErr(w, err)
				return
			}
		}
		events.Log(r.Context(), eventlog.TypeAssessmentSubmitted, userID, map[string]any{
			"session_id": s.ID, "kind": s.Kind, "score": s.Score, "passed": s.Passed,
			"submitted_at": time.Unix(s.SubmittedAt, 0).UTC(),
		})
		respondJSON(w, http.StatusOK, toPayload(s))
	}
}
