package loan

import "errors"

// Sentinel errors for the loan lifecycle. Stores return these (possibly
// wrapped); handlers match with errors.Is to pick status codes.
var (
	// ErrValidation means the caller's input is malformed (e.g. return date
	// before borrowing date). Fix the input, do not retry as-is.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the loan request id is unknown.
	ErrNotFound = errors.New("loan request not found")

	// ErrEquipmentNotFound means the referenced equipment does not exist.
	ErrEquipmentNotFound = errors.New("equipment not found")

	// ErrForbidden means the actor's role may not trigger this transition.
	ErrForbidden = errors.New("forbidden")

	// ErrIllegalTransition means the (from, to) pair is not an edge of the
	// lifecycle graph. Usually a stale UI or a programming error upstream.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrCapacityExceeded means every unit of the equipment is already on an
	// active loan. May succeed later, once something is returned or refused.
	ErrCapacityExceeded = errors.New("no units available")

	// ErrStaleState is returned by a store when the stored status no longer
	// matches the expected one at the moment of update.
	ErrStaleState = errors.New("stale loan state")

	// ErrConflict is what the engine surfaces when it loses a race with a
	// concurrent mutation. Never resolved silently; the caller must re-read.
	ErrConflict = errors.New("conflicting concurrent update, refresh and retry")
)
