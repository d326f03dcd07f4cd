package access

import "errors"

// The authorization error taxonomy. These are business outcomes, not
// transient failures — nothing here is ever retried. The HTTP layer maps
// them to status codes with errors.Is.
var (
	// ErrUnauthenticated: no resolvable caller identity.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrIdentityNotFound: the token named a user that no longer resolves
	// to a record. A data-integrity anomaly — signup always creates the
	// record before a token exists — so it is surfaced, never papered over.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrUserNotFound / ErrLogNotFound: a referenced entity is absent.
	ErrUserNotFound = errors.New("user not found")
	ErrLogNotFound  = errors.New("query log not found")

	// ErrUnauthorized: the caller lacks the required role or ownership.
	ErrUnauthorized = errors.New("not authorized")

	// ErrAdminAlreadyExists: the first-admin bootstrap found an admin
	// already in place. Expected and user-facing, not an alarm condition.
	ErrAdminAlreadyExists = errors.New("tenant already has an administrator")
)
