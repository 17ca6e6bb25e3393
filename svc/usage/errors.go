package usage

import "errors"

var (
	// ErrUserNotFound indicates no user record exists for the given ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownKind indicates an unrecognized usage kind.
	ErrUnknownKind = errors.New("unknown usage kind")

	// ErrFailedToCountUsage wraps store failures during quota computation.
	ErrFailedToCountUsage = errors.New("failed to count usage")
)
