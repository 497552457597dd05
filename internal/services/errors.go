package services

import (
	"errors"
	"fmt"
)

// ─── Failure Categories ───────────────────────────────────────────────────────

// Every operation reports failure through one of four categories. Specific
// sentinels below wrap a category, so callers can match either the exact
// condition or the category with errors.Is.
var (
	// ErrNotFound covers unknown patron or item ids.
	ErrNotFound = errors.New("not found")

	// ErrRoleViolation is returned when the actor lacks the required role.
	ErrRoleViolation = errors.New("role violation")

	// ErrPolicyViolation covers circulation-rule rejections: loan limit,
	// unavailable item, queue priority, duplicate loan or hold.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrPersistence is returned when the repository could not commit the
	// operation's atomic unit; no partial state is retained.
	ErrPersistence = errors.New("persistence failure")
)

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	ErrItemNotFound = fmt.Errorf("%w: item", ErrNotFound)

	// ErrNotAPatron is returned when the acting user exists but does not have
	// the Patron role required to borrow or hold.
	ErrNotAPatron = fmt.Errorf("%w: actor is not a patron", ErrRoleViolation)

	// ErrNotALibrarian is returned when a catalogue operation is attempted by
	// a user without the Librarian role.
	ErrNotALibrarian = fmt.Errorf("%w: actor is not a librarian", ErrRoleViolation)

	// ErrLoanLimitReached is returned when the patron already has the maximum
	// number of simultaneous active loans.
	ErrLoanLimitReached = fmt.Errorf("%w: active loan limit reached", ErrPolicyViolation)

	// ErrItemUnavailable is returned when the item is checked out and cannot
	// be borrowed directly.
	ErrItemUnavailable = fmt.Errorf("%w: item is not available", ErrPolicyViolation)

	// ErrReservedForAnother is returned when the item's hold queue is
	// non-empty and the requester is not at its head.
	ErrReservedForAnother = fmt.Errorf("%w: item is reserved for another patron", ErrPolicyViolation)

	// ErrAlreadyBorrowed is returned when the patron already has an active
	// loan on the requested item.
	ErrAlreadyBorrowed = fmt.Errorf("%w: item already on loan to this patron", ErrPolicyViolation)

	// ErrNotBorrowed is returned on return when no active loan for the item
	// matches the caller; it covers both "not borrowed at all" and "borrowed
	// by someone else".
	ErrNotBorrowed = fmt.Errorf("%w: no active loan for this patron and item", ErrPolicyViolation)

	// ErrHoldNotAllowed is returned when a hold is requested on a freely
	// available item (available with an empty queue).
	ErrHoldNotAllowed = fmt.Errorf("%w: item is available, borrow it directly", ErrPolicyViolation)

	// ErrDuplicateHold is returned when the patron is already in the item's
	// hold queue.
	ErrDuplicateHold = fmt.Errorf("%w: patron already holds a place in the queue", ErrPolicyViolation)

	// ErrHoldNotFound is returned on cancel when no hold exists for the
	// patron/item pair.
	ErrHoldNotFound = fmt.Errorf("%w: no hold for this patron and item", ErrPolicyViolation)

	// ErrItemInCirculation is returned when a librarian tries to remove an
	// item that is checked out or still has queued holds.
	ErrItemInCirculation = fmt.Errorf("%w: item is checked out or has queued holds", ErrPolicyViolation)

	// ErrInvalidItem is returned when a new catalogue record fails validation.
	ErrInvalidItem = fmt.Errorf("%w: invalid item data", ErrPolicyViolation)
)

// persistenceErr wraps a repository error into the PersistenceFailure category.
func persistenceErr(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
