package auth

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation requires an identity
	// and none was resolved from the request.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotAuthorized is returned when the actor's role does not permit the
	// requested operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidInput is returned when a required field is missing or a
	// supplied value is malformed.
	ErrInvalidInput = errors.New("invalid input")
)
