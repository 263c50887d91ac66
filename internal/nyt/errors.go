package nyt

import "errors"

// Common errors for NYT service clients.
var (
	// ErrNotFound means the service has no data for the requested date or id.
	ErrNotFound = errors.New("nyt: not found")

	// ErrUnauthorized means the session credentials were rejected.
	ErrUnauthorized = errors.New("nyt: session credentials rejected")

	// ErrNoUserID means the session cookie does not identify the archive owner.
	ErrNoUserID = errors.New("nyt: no regi_id in session cookie")
)
