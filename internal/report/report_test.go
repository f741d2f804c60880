package report_test

import (
	"context"
	"testing"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/progress"
	"github.com/ocrp-academy/trainportal/internal/report"
)

type fakeProgressStore struct {
	aggregates []progress.UserProgress
}

func (f *fakeProgressStore) Load(ctx context.Context, userID string) (progress.UserProgress, bool, error) {
	for _, p := range f.aggregates {
		if p.UserID == userID {
			return p, true, nil
		}
	}
	return progress.UserProgress{}, false, nil
}

func (f *fakeProgressStore) Save(ctx context.Context, p progress.UserProgress) error {
	f.aggregates = append(f.aggregates, p)
	return nil
}

func (f *fakeProgressStore) ListAll(ctx context.Context) ([]progress.UserProgress, error) {
	return f.aggregates, nil
}

func TestBuildSummarizesCohort(t *testing.T) {
	complete := progress.New("done")
	for id := 1; id <= 4; id++ {
		var err error
		complete, err = progress.CompleteModule(complete, id, 90)
		if err != nil {
			t.Fatalf("complete %d: %v", id, err)
		}
	}
	complete = progress.RecordAssessment(complete, assessment.Result{Score: 90, Passed: true, Completed: true})

	halfway, err := progress.CompleteModule(progress.New("halfway"), 1, 70)
	if err != nil {
		t.Fatalf("halfway: %v", err)
	}

	failed := progress.RecordAssessment(progress.New("failed"),
		assessment.Result{Score: 60, Passed: false, Completed: true})

	st := &fakeProgressStore{aggregates: []progress.UserProgress{complete, halfway, failed}}
	s, err := report.Build(context.Background(), st)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.TotalLearners != 3 {
		t.Fatalf("total learners: want 3, got %d", s.TotalLearners)
	}
	if s.CompletedAll != 1 {
		t.Fatalf("completed all: want 1, got %d", s.CompletedAll)
	}
	if s.AssessmentsDone != 2 {
		t.Fatalf("assessments done: want 2, got %d", s.AssessmentsDone)
	}
	if s.PassCount != 1 {
		t.Fatalf("pass count: want 1, got %d", s.PassCount)
	}
	if s.AverageScore != 75 {
		t.Fatalf("average score: want 75, got %v", s.AverageScore)
	}

	byUser := map[string]report.LearnerRow{}
	for _, r := range s.Learners {
		byUser[r.UserID] = r
	}
	if row := byUser["halfway"]; row.ModulesCompleted != 1 || row.AssessmentTaken {
		t.Fatalf("halfway row: %+v", row)
	}
	if row := byUser["done"]; row.ModulesCompleted != 4 || !row.Passed {
		t.Fatalf("done row: %+v", row)
	}
}

func TestBuildEmptyCohort(t *testing.T) {
	s, err := report.Build(context.Background(), &fakeProgressStore{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.TotalLearners != 0 || s.AverageScore != 0 {
		t.Fatalf("empty cohort summary: %+v", s)
	}
}
