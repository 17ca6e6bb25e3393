package demo

import "errors"

var (
	// ErrUnavailable indicates the shared generation credential is not configured.
	ErrUnavailable = errors.New("demo mode is unavailable")

	// ErrUnknownFeature indicates an unrecognized feature name.
	ErrUnknownFeature = errors.New("unknown demo feature")
)
