package settlement

import "errors"

var (
	// ErrGroupNotFound is returned by Settler when the group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrInvalidAmount is returned for NaN or infinite amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidMembers is returned for an empty member list or duplicate member IDs.
	ErrInvalidMembers = errors.New("invalid member list")

	// ErrInconsistentSplit is returned in strict mode when an expense references a
	// member outside the group.
	ErrInconsistentSplit = errors.New("expense references a member outside the group")

	// ErrLimitExceeded is returned when the input exceeds Options limits.
	ErrLimitExceeded = errors.New("settlement input exceeds limits")
)
