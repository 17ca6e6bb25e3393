package billing

import (
	"errors"
	"fmt"
)

var (
	ErrBillingDisabled    = errors.New("billing is disabled")
	ErrIdentityMismatch   = errors.New("request identity does not match authenticated user")
	ErrInvalidPlan        = errors.New("invalid plan for checkout")
	ErrConsentRequired    = errors.New("consent is required before checkout")
	ErrPriceNotConfigured = errors.New("price ID not configured for plan")
	ErrNoBillingCustomer  = errors.New("no billing customer for user")
	ErrInvalidSignature   = errors.New("webhook signature invalid")
	ErrInvalidPayload     = errors.New("webhook payload malformed")
)

// ProviderError carries the processor's diagnostic text for server-side logs.
// Clients only ever see a generic message; the processor's raw error body may
// reference account internals and must not leak.
type ProviderError struct {
	Op     string // API operation, e.g. "create checkout session"
	Status int    // HTTP status returned by the processor, 0 for transport failures
	Detail string // processor's error text
	Err    error  // underlying transport error, if any
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("billing provider: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("billing provider: %s failed with status %d: %s", e.Op, e.Status, e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
