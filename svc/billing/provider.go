package billing

import "context"

// Provider is the minimal interface to the payment processor. The processor
// handles all payment complexity through hosted checkout and portal pages;
// this engine only ever exchanges identifiers and URLs with it.
type Provider interface {
	// CreateCustomer creates a processor customer record for the user and
	// returns its ID. Called at most once per user; the ID is cached on the
	// user record afterwards.
	CreateCustomer(ctx context.Context, email, userID string) (string, error)

	// CreateCheckoutSession creates a hosted checkout session and returns its URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (string, error)

	// CreatePortalSession creates a hosted self-service management session
	// for an existing customer and returns its URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// CheckoutSessionParams describes a hosted checkout session request.
type CheckoutSessionParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	// Metadata is echoed back in the checkout-completed webhook so the
	// purchase can be attributed without re-deriving identity.
	Metadata map[string]string
}
