package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrIdentityMissing gates quiz access on a registered identity record.
	ErrIdentityMissing = errors.New("user identity not registered")
	// ErrBankUnavailable indicates the question bank could not be fetched or parsed.
	ErrBankUnavailable = errors.New("question bank unavailable")
	// ErrBankTooSmall indicates the bank holds fewer eligible questions than a session needs.
	ErrBankTooSmall = errors.New("question bank too small")
	// ErrQuestionsMissing indicates no question set exists for the session.
	ErrQuestionsMissing = errors.New("question set not provisioned")
	// ErrResultsMissing indicates the session has not been finalized yet.
	ErrResultsMissing = errors.New("quiz results not found")
	// ErrSummaryIncomplete is returned when identity, questions, or results
	// are missing; all three are mandatory for a valid summary.
	ErrSummaryIncomplete = errors.New("missing data for summary generation")
	// ErrAlreadySubmitted rejects answer mutations after finalization.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrIndexOutOfRange rejects answers for question indices outside the set.
	ErrIndexOutOfRange = errors.New("question index out of range")
)
