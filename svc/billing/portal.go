package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/inkstrip/inkstrip/svc/identity"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// Portal issues hosted self-service subscription management sessions.
type Portal struct {
	cfg      Config
	provider Provider
	store    Store
	log      *slog.Logger
}

// NewPortal creates the portal session factory.
func NewPortal(cfg Config, provider Provider, store Store, log *slog.Logger) *Portal {
	if provider == nil {
		panic("billing: provider is required")
	}
	if store == nil {
		panic("billing: store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Portal{cfg: cfg, provider: provider, store: store, log: log}
}

// CreateSession returns a portal URL for the user's existing billing customer.
// Returns ErrNoBillingCustomer when the user never started a purchase.
func (p *Portal) CreateSession(ctx context.Context, id identity.Identity, returnURL string) (string, error) {
	if id.IsZero() {
		return "", ErrIdentityMismatch
	}

	user, err := p.store.GetUser(ctx, id.ID)
	if errors.Is(err, usage.ErrUserNotFound) {
		return "", ErrNoBillingCustomer
	}
	if err != nil {
		return "", err
	}
	if user.BillingCustomerID == "" {
		return "", ErrNoBillingCustomer
	}

	return p.provider.CreatePortalSession(ctx, user.BillingCustomerID, p.sanitizeReturnURL(returnURL))
}

// sanitizeReturnURL is the open-redirect defense for a URL handed to an
// external redirect target. Same-origin relative paths are kept, absolute
// URLs must match the allow-list, everything else falls back to the default
// path on the service's own origin.
func (p *Portal) sanitizeReturnURL(raw string) string {
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	fallback := base + p.cfg.DefaultReturnPath

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	// Relative path on our own origin. "//" is scheme-relative and
	// attacker-controllable, so it does not qualify.
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return base + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fallback
	}

	origin := parsed.Scheme + "://" + parsed.Host
	if origin == base || slices.Contains(p.cfg.AllowedReturnOrigins, origin) {
		return raw
	}

	return fallback
}
