package assessment

import "errors"

var (
	// ErrIncompleteAssessment rejects a final submit while questions remain
	// unanswered.
	ErrIncompleteAssessment = errors.New("assessment: unanswered questions remain")

	// ErrAlreadySubmitted rejects any mutation of a terminal session.
	ErrAlreadySubmitted = errors.New("assessment: already submitted")

	// ErrNoAttemptsRemaining rejects starting a session once the attempt
	// allowance is used up.
	ErrNoAttemptsRemaining = errors.New("assessment: no attempts remaining")

	// ErrQuestionIndex flags an answer for an index outside the session.
	ErrQuestionIndex = errors.New("assessment: question index out of range")

	// ErrUnknownOption flags an answer that is not one of the question's
	// presented options.
	ErrUnknownOption = errors.New("assessment: option not in question")

	// ErrNotFound reports a missing session.
	ErrNotFound = errors.New("assessment: session not found")
)
