package assessment

import (
	"github.com/ocrp-academy/trainportal/internal/bank"
)

// Session kinds.
const (
	KindFinal    = "final"
	KindPractice = "practice"
)

// Session statuses. A session is terminal once submitted or expired;
// both carry a recorded score.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusExpired    = "expired"
)

// FinalPassingScore is the pass line for the certification assessment.
const FinalPassingScore = 80

// Session is one randomized sitting of an exam. The question order and the
// per-question option orders are shuffled exactly once, when the session is
// created, and persisted with it; reloading a session never reshuffles.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`

	// Questions is the shuffled ordering for this sitting.
	Questions []bank.Entry `json:"questions"`
	// Options[i] is the shuffled option order for Questions[i].
	Options [][]string `json:"options"`
	// Answers maps question index -> chosen option. Last write wins.
	Answers map[int]string `json:"answers"`

	PassingScore  int `json:"passing_score"`
	AttemptNumber int `json:"attempt_number"`

	Score  int  `json:"score"`
	Passed bool `json:"passed"`

	StartedAt   int64 `json:"started_at"`
	SubmittedAt int64 `json:"submitted_at,omitempty"`
	// Deadline is a unix timestamp; zero means untimed.
	Deadline int64 `json:"deadline,omitempty"`
}

// Result is the archived outcome of a terminal session.
type Result struct {
	Score     int  `json:"score"`
	Passed    bool `json:"passed"`
	Completed bool `json:"completed"`
}

// Result returns the archived outcome. Only meaningful once terminal.
func (s *Session) Result() Result {
	return Result{Score: s.Score, Passed: s.Passed, Completed: s.Terminal()}
}

// Terminal reports whether the session has been scored.
func (s *Session) Terminal() bool {
	return s.Status == StatusSubmitted || s.Status == StatusExpired
}

// OptionsFor returns the shuffled options for one question index.
func (s *Session) OptionsFor(i int) []string {
	if i < 0 || i >= len(s.Options) {
		return nil
	}
	return append([]string(nil), s.Options[i]...)
}

// CanSubmit reports whether every question has a recorded answer.
func (s *Session) CanSubmit() bool {
	for i := range s.Questions {
		if _, ok := s.Answers[i]; !ok {
			return false
		}
	}
	return true
}

// QuestionView is the learner-facing projection of one session question:
// the prompt plus this sitting's option order, no answer key.
type QuestionView struct {
	Index   int      `json:"index"`
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// View projects the session for learners, stripping answer keys.
func (s *Session) View() []QuestionView {
	out := make([]QuestionView, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = QuestionView{Index: i, ID: q.ID, Prompt: q.Prompt, Options: s.OptionsFor(i)}
	}
	return out
}
