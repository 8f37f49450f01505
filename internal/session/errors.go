package session

import "errors"

var (
	// ErrStartRejected is returned when a session start is attempted while a
	// draft already exists or the platform reports an active session. It is a
	// precondition failure; callers must cancel or complete first, not retry.
	ErrStartRejected = errors.New("session already active")

	// ErrSubmissionFailed wraps any transport or server-validation error on
	// completion. The draft is retained on this path; the caller decides
	// whether to retry.
	ErrSubmissionFailed = errors.New("session completion submission failed")

	// ErrNoActiveSession is returned by operations that require an active
	// session when there is none.
	ErrNoActiveSession = errors.New("no active session")

	// ErrCompletionInFlight is returned by Complete while an earlier
	// submission is still outstanding. The platform endpoint has no
	// idempotency keys, so a second concurrent submission would duplicate the
	// session; retrying is legal only after the prior attempt has failed.
	ErrCompletionInFlight = errors.New("completion submission already in flight")
)
