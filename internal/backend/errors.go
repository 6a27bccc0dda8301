package backend

import "errors"

// Failure taxonomy. Flows wrap causes with fmt.Errorf("%w: %v", ...)
// so callers can match with errors.Is while keeping the cause text.
var (
	// ErrAuthorizationRequired means submission was attempted without
	// a session. Raised before any I/O happens.
	ErrAuthorizationRequired = errors.New("authorization required")

	// ErrUploadFailure means the blob store rejected a file. The
	// parent report insert must not proceed.
	ErrUploadFailure = errors.New("image upload failed")

	// ErrPersistenceFailure means the record store rejected an
	// insert, select or delete.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNotFound means a lookup matched zero rows. A normal terminal
	// state, never logged as an error.
	ErrNotFound = errors.New("not found")

	// ErrTransportFailure means a network or otherwise unexpected
	// failure during a call; surfaced with a generic user message.
	ErrTransportFailure = errors.New("transport failure")

	// ErrInvalidCredentials is returned by SignIn for a bad
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailInUse is returned by SignUp when the email is taken.
	ErrEmailInUse = errors.New("email already registered")
)
