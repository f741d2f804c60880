package assessment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ocrp-academy/trainportal/internal/bank"
)

// PracticeConfig parameterizes a retakeable practice exam.
type PracticeConfig struct {
	QuestionCount int           `json:"question_count"`
	TimeLimit     time.Duration `json:"time_limit"`
	PassingScore  int           `json:"passing_score"`
	MaxAttempts   int           `json:"max_attempts"`
}

// Engine runs assessment sessions against a Store. The clock and RNG are
// injectable so tests can pin time and orderings.
type Engine struct {
	store Store
	now   func() time.Time
	rng   *rand.Rand
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithRand(rng *rand.Rand) Option        { return func(e *Engine) { e.rng = rng } }

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StartFinal begins (or resumes) the single-attempt certification
// assessment over the full bank. If an in-progress final session exists it
// is returned unchanged, so a page reload keeps the same question order.
// Once a final session is terminal, further starts are refused.
func (e *Engine) StartFinal(ctx context.Context, userID string, entries []bank.Entry) (Session, error) {
	if len(entries) == 0 {
		return Session{}, fmt.Errorf("assessment: empty question bank")
	}
	if existing, ok, err := e.store.Active(ctx, userID, KindFinal); err != nil {
		return Session{}, err
	} else if ok {
		return existing, nil
	}
	n, err := e.store.CountTerminal(ctx, userID, KindFinal)
	if err != nil {
		return Session{}, err
	}
	if n > 0 {
		return Session{}, ErrNoAttemptsRemaining
	}

	questions := shuffleQuestions(e.rng, entries)
	s := Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		Kind:          KindFinal,
		Status:        StatusInProgress,
		Questions:     questions,
		Options:       shuffleOptions(e.rng, questions),
		Answers:       map[int]string{},
		PassingScore:  FinalPassingScore,
		AttemptNumber: 1,
		StartedAt:     e.now().Unix(),
	}
	if err := e.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// StartPractice begins a timed practice sitting over a random subset of
// entries. Practice exams are retakeable up to cfg.MaxAttempts.
func (e *Engine) StartPractice(ctx context.Context, userID string, entries []bank.Entry, cfg PracticeConfig) (Session, error) {
	if len(entries) == 0 {
		return Session{}, fmt.Errorf("assessment: empty question bank")
	}
	if cfg.QuestionCount <= 0 || cfg.QuestionCount > len(entries) {
		cfg.QuestionCount = len(entries)
	}
	if cfg.PassingScore <= 0 {
		cfg.PassingScore = FinalPassingScore
	}
	used, err := e.store.CountTerminal(ctx, userID, KindPractice)
	if err != nil {
		return Session{}, err
	}
	if cfg.MaxAttempts > 0 && used >= cfg.MaxAttempts {
		return Session{}, ErrNoAttemptsRemaining
	}

	questions := shuffleQuestions(e.rng, entries)[:cfg.QuestionCount]
	now := e.now()
	s := Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		Kind:          KindPractice,
		Status:        StatusInProgress,
		Questions:     questions,
		Options:       shuffleOptions(e.rng, questions),
		Answers:       map[int]string{},
		PassingScore:  cfg.PassingScore,
		AttemptNumber: used + 1,
		StartedAt:     now.Unix(),
	}
	if cfg.TimeLimit > 0 {
		s.Deadline = now.Add(cfg.TimeLimit).Unix()
	}
	if err := e.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get loads a session, expiring it first if its deadline has passed.
func (e *Engine) Get(ctx context.Context, id string) (Session, error) {
	s, err := e.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return e.expireIfDue(ctx, s)
}

// SubmitAnswer records (or overwrites) the answer for one question index.
// The chosen option must be one of the options presented for that question.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, chosenOption string) (Session, error) {
	s, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if s, err = e.expireIfDue(ctx, s); err != nil {
		return Session{}, err
	}
	if s.Terminal() {
		return Session{}, ErrAlreadySubmitted
	}
	if questionIndex < 0 || questionIndex >= len(s.Questions) {
		return Session{}, fmt.Errorf("%w: %d", ErrQuestionIndex, questionIndex)
	}
	valid := false
	for _, o := range s.Options[questionIndex] {
		if o == chosenOption {
			valid = true
			break
		}
	}
	if !valid {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownOption, chosenOption)
	}
	if s.Answers == nil {
		s.Answers = map[int]string{}
	}
	s.Answers[questionIndex] = chosenOption
	if err := e.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Submit scores the session and moves it to its terminal state. Final
// sessions require every question answered; practice sessions may be
// handed in early, with unanswered questions counting as wrong. Submitting
// a terminal session is refused.
func (e *Engine) Submit(ctx context.Context, sessionID string) (Session, error) {
	s, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if s, err = e.expireIfDue(ctx, s); err != nil {
		return Session{}, err
	}
	if s.Terminal() {
		return Session{}, ErrAlreadySubmitted
	}
	if s.Kind == KindFinal && !s.CanSubmit() {
		return Session{}, ErrIncompleteAssessment
	}
	score(&s)
	s.Status = StatusSubmitted
	s.SubmittedAt = e.now().Unix()
	if err := e.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// expireIfDue force-submits an overdue session with whatever answers are
// recorded. Only the first trigger scores; an already-terminal session
// passes through untouched.
func (e *Engine) expireIfDue(ctx context.Context, s Session) (Session, error) {
	if s.Terminal() || s.Deadline == 0 || e.now().Unix() < s.Deadline {
		return s, nil
	}
	score(&s)
	s.Status = StatusExpired
	s.SubmittedAt = e.now().Unix()
	if err := e.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// score computes the percent score (round half up) and the pass outcome.
func score(s *Session) {
	correct := 0
	for i, q := range s.Questions {
		if ans, ok := s.Answers[i]; ok && ans == q.CorrectAnswer {
			correct++
		}
	}
	s.Score = int(math.Floor(float64(correct)/float64(len(s.Questions))*100 + 0.5))
	s.Passed = s.Score >= s.PassingScore
}
