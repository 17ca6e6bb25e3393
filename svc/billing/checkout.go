package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkstrip/inkstrip/svc/identity"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// CheckoutRequest is the client's checkout intent.
type CheckoutRequest struct {
	Plan      string
	UserID    string
	UserEmail string
	Consent   ConsentInput
}

// ConsentInput is the client's assertion that subscription terms were accepted.
type ConsentInput struct {
	Accepted bool
	Version  string
}

// RequestMeta carries transport-level facts recorded alongside consent.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// Checkout issues hosted checkout sessions.
type Checkout struct {
	cfg      Config
	provider Provider
	store    Store
	consents *ConsentRecorder
	log      *slog.Logger
	now      func() time.Time
}

// NewCheckout creates the checkout session factory.
func NewCheckout(cfg Config, provider Provider, store Store, consents *ConsentRecorder, log *slog.Logger) *Checkout {
	if provider == nil {
		panic("billing: provider is required")
	}
	if store == nil {
		panic("billing: store is required")
	}
	if consents == nil {
		panic("billing: consent recorder is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Checkout{
		cfg:      cfg,
		provider: provider,
		store:    store,
		consents: consents,
		log:      log,
		now:      time.Now,
	}
}

// CreateCheckout validates the request against the authenticated identity,
// ensures a processor customer exists for the user, records consent, and
// returns the hosted checkout URL.
//
// The requested userId/userEmail must match the verified identity exactly
// (case-insensitive): a user must not be able to initiate a checkout that
// attributes the purchase to someone else's account.
func (c *Checkout) CreateCheckout(ctx context.Context, id identity.Identity, req CheckoutRequest, meta RequestMeta) (string, error) {
	if !c.cfg.Enabled {
		return "", ErrBillingDisabled
	}
	if id.IsZero() {
		return "", ErrIdentityMismatch
	}
	if !id.Matches(req.UserID) || !id.Matches(req.UserEmail) {
		return "", ErrIdentityMismatch
	}

	plan := usage.Plan(req.Plan)
	if !plan.IsPaid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, req.Plan)
	}
	if !req.Consent.Accepted || strings.TrimSpace(req.Consent.Version) == "" {
		return "", ErrConsentRequired
	}

	priceID, err := c.priceFor(plan)
	if err != nil {
		return "", err
	}

	// The verified identity is authoritative from here on, not the request body.
	userID, email := id.ID, id.Email

	customerID, err := c.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}

	// Consent evidence is best-effort; the user's acceptance already gates
	// the flow above.
	c.consents.Record(ctx, userID, req.Consent.Version, meta.ClientIP, meta.UserAgent)

	// Redirect targets come from the configured origin, never from the
	// client's Origin header.
	base := strings.TrimRight(c.cfg.BaseURL, "/")

	return c.provider.CreateCheckoutSession(ctx, CheckoutSessionParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: base + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/pricing",
		Metadata: map[string]string{
			"user_id":             userID,
			"plan":                string(plan),
			"consent_version":     req.Consent.Version,
			"consent_accepted_at": c.now().UTC().Format(time.RFC3339),
		},
	})
}

// ensureCustomer returns the user's processor customer ID, creating and
// persisting one on first purchase attempt.
func (c *Checkout) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	user, err := c.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, usage.ErrUserNotFound) {
		return "", err
	}
	if user != nil && user.BillingCustomerID != "" {
		return user.BillingCustomerID, nil
	}

	customerID, err := c.provider.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", err
	}

	if err := c.store.SetBillingCustomer(ctx, userID, email, customerID); err != nil {
		return "", err
	}

	c.log.InfoContext(ctx, "created billing customer", "user_id", userID, "customer_id", customerID)

	return customerID, nil
}

func (c *Checkout) priceFor(plan usage.Plan) (string, error) {
	var priceID string
	switch plan {
	case usage.PlanLite:
		priceID = c.cfg.LitePriceID
	case usage.PlanPro:
		priceID = c.cfg.ProPriceID
	}
	if priceID == "" {
		return "", fmt.Errorf("%w: %s", ErrPriceNotConfigured, plan)
	}
	return priceID, nil
}
