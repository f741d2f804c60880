// Package report builds the admin dashboard's cross-learner summary. It
// is a read-only batch over independently owned progress aggregates; no
// learner state is touched and no locking is involved.
package report

import (
	"context"

	"github.com/ocrp-academy/trainportal/internal/progress"
)

// LearnerRow is one learner's line in the summary.
type LearnerRow struct {
	UserID           string `json:"user_id"`
	ModulesCompleted int    `json:"modules_completed"`
	AssessmentTaken  bool   `json:"assessment_taken"`
	AssessmentScore  int    `json:"assessment_score"`
	Passed           bool   `json:"passed"`
}

// Summary aggregates the whole cohort.
type Summary struct {
	Learners        []LearnerRow `json:"learners"`
	TotalLearners   int          `json:"total_learners"`
	CompletedAll    int          `json:"completed_all_modules"`
	AssessmentsDone int          `json:"assessments_done"`
	PassCount       int          `json:"pass_count"`
	AverageScore    float64      `json:"average_score"`
}

// Build reads every stored aggregate and summarizes it.
func Build(ctx context.Context, store progress.Store) (Summary, error) {
	all, err := store.ListAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	scoreSum := 0
	for _, p := range all {
		row := LearnerRow{UserID: p.UserID}
		for _, m := range p.Modules {
			if m.Completed {
				row.ModulesCompleted++
			}
		}
		row.AssessmentTaken = p.Assessment.Completed
		row.AssessmentScore = p.Assessment.Score
		row.Passed = p.Assessment.Passed

		if progress.AssessmentUnlocked(p) {
			s.CompletedAll++
		}
		if row.AssessmentTaken {
			s.AssessmentsDone++
			scoreSum += row.AssessmentScore
		}
		if row.Passed {
			s.PassCount++
		}
		s.Learners = append(s.Learners, row)
	}
	s.TotalLearners = len(all)
	if s.AssessmentsDone > 0 {
		s.AverageScore = float64(scoreSum) / float64(s.AssessmentsDone)
	}
	return s, nil
}
