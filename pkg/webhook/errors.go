package webhook

import "errors"

var (
	// ErrInvalidHeader indicates the signature header is missing or malformed.
	ErrInvalidHeader = errors.New("invalid signature header")

	// ErrSignatureMismatch indicates no candidate signature matched the payload.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrTimestampOutOfTolerance indicates the signed timestamp is too old or in the future.
	ErrTimestampOutOfTolerance = errors.New("signature timestamp out of tolerance")

	// ErrInvalidConfiguration indicates the verifier was called without required inputs.
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
)
