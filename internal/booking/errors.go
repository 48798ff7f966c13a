package booking

import "errors"

var (
	// ErrValidation is returned when a step check or field update is rejected.
	// The user-facing message is stored in State.Error.
	ErrValidation = errors.New("booking: validation failed")

	// ErrUnknownField is returned by SetField for names outside the draft.
	ErrUnknownField = errors.New("booking: unknown field")

	// ErrNotReviewStep is returned when Submit is called before step 5.
	ErrNotReviewStep = errors.New("booking: submit is only allowed from the review step")

	// ErrSubmissionInFlight is returned while an earlier submission is pending.
	ErrSubmissionInFlight = errors.New("booking: submission already in progress")
)
