package exam

import "errors"

// Failure taxonomy surfaced to the presentation layer. Handlers map
// these to status codes and "next action" hints; nothing below ever
// panics across that boundary.
var (
	// ErrDataUnavailable: backing tables could not be loaded or saved
	// after retries. Caller should retry or contact the administrator.
	ErrDataUnavailable = errors.New("exam data unavailable")

	// ErrExamNotFound / ErrNoQuestions: configuration problems an
	// administrator has to fix; attempt creation is blocked.
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("no questions for exam")

	// ErrAttemptsExhausted: policy rejection, not a system failure.
	ErrAttemptsExhausted = errors.New("maximum attempts reached")

	// ErrSessionExpired: the working snapshot was lost while an attempt
	// is still in progress. Re-entering via the instructions page
	// resumes the same attempt; time keeps accruing from the original
	// start.
	ErrSessionExpired = errors.New("exam session expired")

	// ErrPartialSubmission: the result row was written but its response
	// rows were not. The attempt is deliberately left in progress so a
	// retried submit reuses it instead of double-counting.
	ErrPartialSubmission = errors.New("result saved but responses failed")

	// ErrNotFound: a referenced attempt or result does not exist.
	ErrNotFound = errors.New("not found")
)
