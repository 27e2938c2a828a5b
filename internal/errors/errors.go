package errors

import "errors"

// Domain errors shared by the relational and fast-path matching services.
var (
	// ErrAlreadyInQueue rejects a join while the participant is WAITING or
	// MATCHED.
	ErrAlreadyInQueue = errors.New("already in queue")

	// ErrNotInQueue rejects cancel/leave when no active entry exists.
	ErrNotInQueue = errors.New("not in queue")

	// ErrCannotLeaveMatched rejects leave while MATCHED; the participant must
	// acknowledge the match first.
	ErrCannotLeaveMatched = errors.New("cannot leave while matched")

	// ErrTooManyRequests rejects a re-join inside the debounce window.
	ErrTooManyRequests = errors.New("too many join requests")

	// ErrUserNotFound means the participant id has no profile.
	ErrUserNotFound = errors.New("user not found")

	// ErrConfirmationRace means the conditional status update changed fewer
	// than two rows: a concurrent match claimed at least one participant.
	// Internal only; callers abandon the attempt and leave the loser WAITING.
	ErrConfirmationRace = errors.New("match confirmation lost race")
)
