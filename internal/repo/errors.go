package repo

import "errors"

// ErrDuplicateUsername and ErrDuplicateEmail are returned by Create when the
// corresponding unique constraint rejects the insert. The constraint is the
// authoritative guard against concurrent registrations; handler-level
// pre-checks only exist for friendlier error ordering.
var (
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// ErrUserNotFound is returned by lookups when no row matches.
var ErrUserNotFound = errors.New("user not found")
