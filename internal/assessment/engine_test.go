package assessment_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/bank"
)

func testBank(n int) []bank.Entry {
	entries := make([]bank.Entry, n)
	for i := range entries {
		entries[i] = bank.Entry{
			ID:            fmt.Sprintf("q%02d", i),
			ModuleID:      i%4 + 1,
			Prompt:        fmt.Sprintf("prompt %d", i),
			CorrectAnswer: fmt.Sprintf("right %d", i),
			Options: []string{
				fmt.Sprintf("right %d", i),
				fmt.Sprintf("wrong %d-a", i),
				fmt.Sprintf("wrong %d-b", i),
				fmt.Sprintf("wrong %d-c", i),
			},
		}
	}
	return entries
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newEngine(t *testing.T, seed int64) (*assessment.Engine, assessment.Store, *fakeClock) {
	t.Helper()
	store := assessment.NewInMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	e := assessment.New(store,
		assessment.WithRand(rand.New(rand.NewSource(seed))),
		assessment.WithClock(clock.Now))
	return e, store, clock
}

func ids(entries []bank.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	sort.Strings(out)
	return out
}

func TestStartFinalShuffleIsPermutation(t *testing.T) {
	e, _, _ := newEngine(t, 1)
	entries := testBank(60)

	s, err := e.StartFinal(context.Background(), "u1", entries)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(s.Questions) != 60 {
		t.Fatalf("want 60 questions, got %d", len(s.Questions))
	}
	got, want := ids(s.Questions), ids(entries)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("question multiset mismatch at %d: %s != %s", i, got[i], want[i])
		}
	}
	// each question's shuffled options are a permutation of its originals
	for i, q := range s.Questions {
		opts := append([]string(nil), s.OptionsFor(i)...)
		orig := append([]string(nil), q.Options...)
		sort.Strings(opts)
		sort.Strings(orig)
		for j := range orig {
			if opts[j] != orig[j] {
				t.Fatalf("option multiset mismatch for %s", q.ID)
			}
		}
	}
}

func TestSessionOrderStableAcrossReads(t *testing.T) {
	e, _, _ := newEngine(t, 2)
	s, err := e.StartFinal(context.Background(), "u1", testBank(10))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := e.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := e.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question order changed between reads at %d", i)
		}
		a, b := first.OptionsFor(i), second.OptionsFor(i)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("option order changed between reads at %d/%d", i, j)
			}
		}
	}

	// resuming the final returns the same session, not a reshuffle
	resumed, err := e.StartFinal(context.Background(), "u1", testBank(10))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.ID != s.ID {
		t.Fatalf("resume created a new session")
	}
}

func answerAll(t *testing.T, e *assessment.Engine, s assessment.Session, correct int) assessment.Session {
	t.Helper()
	cur := s
	for i, q := range s.Questions {
		choice := q.CorrectAnswer
		if i >= correct {
			for _, o := range s.OptionsFor(i) {
				if o != q.CorrectAnswer {
					choice = o
					break
				}
			}
		}
		var err error
		cur, err = e.SubmitAnswer(context.Background(), s.ID, i, choice)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	return cur
}

func TestScoringAgainstPassLine(t *testing.T) {
	ctx := context.Background()

	e, _, _ := newEngine(t, 3)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))
	answerAll(t, e, s, 4)
	got, err := e.Submit(ctx, s.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Score != 80 || !got.Passed {
		t.Fatalf("want 80/pass, got %d/%v", got.Score, got.Passed)
	}

	e2, _, _ := newEngine(t, 4)
	s2, _ := e2.StartFinal(ctx, "u2", testBank(5))
	answerAll(t, e2, s2, 3)
	got2, err := e2.Submit(ctx, s2.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got2.Score != 60 || got2.Passed {
		t.Fatalf("want 60/fail, got %d/%v", got2.Score, got2.Passed)
	}
}

func TestSubmitIsOneShot(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 5)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))
	answerAll(t, e, s, 5)
	if _, err := e.Submit(ctx, s.ID); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := e.Submit(ctx, s.ID); !errors.Is(err, assessment.ErrAlreadySubmitted) {
		t.Fatalf("want ErrAlreadySubmitted, got %v", err)
	}
	if _, err := e.SubmitAnswer(ctx, s.ID, 0, "anything"); !errors.Is(err, assessment.ErrAlreadySubmitted) {
		t.Fatalf("answer after submit: want ErrAlreadySubmitted, got %v", err)
	}
}

func TestFinalRequiresAllAnswers(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 6)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))

	if s.CanSubmit() {
		t.Fatalf("fresh session must not be submittable")
	}
	if _, err := e.Submit(ctx, s.ID); !errors.Is(err, assessment.ErrIncompleteAssessment) {
		t.Fatalf("want ErrIncompleteAssessment, got %v", err)
	}
}

func TestAnswerValidationAndOverwrite(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 7)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))

	if _, err := e.SubmitAnswer(ctx, s.ID, 99, "x"); !errors.Is(err, assessment.ErrQuestionIndex) {
		t.Fatalf("want ErrQuestionIndex, got %v", err)
	}
	if _, err := e.SubmitAnswer(ctx, s.ID, 0, "not an option"); !errors.Is(err, assessment.ErrUnknownOption) {
		t.Fatalf("want ErrUnknownOption, got %v", err)
	}

	opts := s.OptionsFor(0)
	if _, err := e.SubmitAnswer(ctx, s.ID, 0, opts[0]); err != nil {
		t.Fatalf("answer: %v", err)
	}
	cur, err := e.SubmitAnswer(ctx, s.ID, 0, opts[1])
	if err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if cur.Answers[0] != opts[1] {
		t.Fatalf("last write must win, got %q", cur.Answers[0])
	}
}

func TestFinalSingleAttempt(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 8)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))
	answerAll(t, e, s, 5)
	if _, err := e.Submit(ctx, s.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.StartFinal(ctx, "u1", testBank(5)); !errors.Is(err, assessment.ErrNoAttemptsRemaining) {
		t.Fatalf("want ErrNoAttemptsRemaining, got %v", err)
	}
}

func TestPracticeAttemptLimit(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 9)
	cfg := assessment.PracticeConfig{QuestionCount: 3, PassingScore: 70, MaxAttempts: 2}

	for i := 0; i < 2; i++ {
		s, err := e.StartPractice(ctx, "u1", testBank(10), cfg)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if s.AttemptNumber != i+1 {
			t.Fatalf("want attempt %d, got %d", i+1, s.AttemptNumber)
		}
		if len(s.Questions) != 3 {
			t.Fatalf("want 3 questions, got %d", len(s.Questions))
		}
		if _, err := e.Submit(ctx, s.ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if _, err := e.StartPractice(ctx, "u1", testBank(10), cfg); !errors.Is(err, assessment.ErrNoAttemptsRemaining) {
		t.Fatalf("want ErrNoAttemptsRemaining, got %v", err)
	}
}

func TestPracticeDeadlineExpiry(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newEngine(t, 10)
	cfg := assessment.PracticeConfig{QuestionCount: 4, TimeLimit: 10 * time.Minute, MaxAttempts: 3}

	s, err := e.StartPractice(ctx, "u1", testBank(8), cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// answer the first question correctly, then run out the clock
	if _, err := e.SubmitAnswer(ctx, s.ID, 0, s.Questions[0].CorrectAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	clock.Advance(11 * time.Minute)

	got, err := e.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != assessment.StatusExpired {
		t.Fatalf("want expired, got %s", got.Status)
	}
	if got.Score != 25 {
		t.Fatalf("1 of 4 correct: want 25, got %d", got.Score)
	}

	// expiry is the terminal trigger; later submits and answers are refused
	if _, err := e.Submit(ctx, s.ID); !errors.Is(err, assessment.ErrAlreadySubmitted) {
		t.Fatalf("want ErrAlreadySubmitted after expiry, got %v", err)
	}
	again, err := e.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Score != got.Score || again.SubmittedAt != got.SubmittedAt {
		t.Fatalf("expiry must score exactly once")
	}
}

func TestPracticeEarlySubmitCountsUnansweredWrong(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 11)
	cfg := assessment.PracticeConfig{QuestionCount: 4, MaxAttempts: 1}

	s, _ := e.StartPractice(ctx, "u1", testBank(8), cfg)
	if _, err := e.SubmitAnswer(ctx, s.ID, 0, s.Questions[0].CorrectAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	got, err := e.Submit(ctx, s.ID)
	if err != nil {
		t.Fatalf("early submit should be allowed for practice: %v", err)
	}
	if got.Score != 25 {
		t.Fatalf("want 25, got %d", got.Score)
	}
}

func TestEndToEndPerfectRun(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newEngine(t, 12)
	s, _ := e.StartFinal(ctx, "u1", testBank(5))

	// follow the shuffled order, always choosing the tracked correct answer
	for i, q := range s.Questions {
		if _, err := e.SubmitAnswer(ctx, s.ID, i, q.CorrectAnswer); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	got, err := e.Submit(ctx, s.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Score != 100 || !got.Passed {
		t.Fatalf("want 100/pass, got %d/%v", got.Score, got.Passed)
	}
	r := got.Result()
	if !r.Completed || !r.Passed || r.Score != 100 {
		t.Fatalf("bad archived result: %+v", r)
	}
}
