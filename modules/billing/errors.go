package billing

import "errors"

var (
	// ErrAuthInvalid is returned when the bearer token is missing or does
	// not resolve to a user.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrInvalidRequest is returned for request bodies that cannot be
	// decoded.
	ErrInvalidRequest = errors.New("invalid request body")
)
