// Package api exposes the service over HTTP: demo status, subscription
// snapshots, checkout and portal session creation, billing webhooks, and the
// generation gate.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/demo"
	"github.com/inkstrip/inkstrip/svc/identity"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// DemoLimiter is the per-address daily allowance for anonymous clients.
type DemoLimiter interface {
	Status(ctx context.Context, clientIP string, feature demo.Feature) (*demo.Status, error)
	CheckAndConsume(ctx context.Context, clientIP string, feature demo.Feature) (*demo.Result, error)
}

// UsageLedger meters authenticated consumption against the plan allowance.
type UsageLedger interface {
	GetUsage(ctx context.Context, userID string) (*usage.Quota, error)
	Snapshot(ctx context.Context, userID string) (*usage.Snapshot, error)
	RecordUsage(ctx context.Context, userID string, kind usage.Kind) bool
}

// CheckoutService issues hosted checkout sessions.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, id identity.Identity, req billing.CheckoutRequest, meta billing.RequestMeta) (string, error)
}

// PortalService issues hosted subscription management sessions.
type PortalService interface {
	CreateSession(ctx context.Context, id identity.Identity, returnURL string) (string, error)
}

// WebhookProcessor applies billing processor events.
type WebhookProcessor interface {
	HandleEvent(ctx context.Context, rawBody []byte, sigHeader string) (*billing.WebhookResult, error)
}

// GenerationInput carries everything a generation backend needs for one comic.
// An empty APIKey means the backend's own configured credential is used.
type GenerationInput struct {
	Kind      usage.Kind
	SourceURL string
	Content   string
	APIKey    string
}

// Generator produces a comic from the given input. Implementations own the
// model call; the HTTP layer only gates and meters it.
type Generator interface {
	Generate(ctx context.Context, input GenerationInput) (json.RawMessage, error)
}

// HealthCheck is a named dependency probe for the health endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps bundles the services the HTTP layer dispatches to.
type Deps struct {
	Demo      DemoLimiter
	Usage     UsageLedger
	Checkout  CheckoutService
	Portal    PortalService
	Webhooks  WebhookProcessor
	Generator Generator
	Health    []HealthCheck
}

// Handler serves the HTTP API.
type Handler struct {
	deps Deps
	log  *slog.Logger
}

// NewHandler creates the HTTP handler. All Deps fields except Health are required.
func NewHandler(deps Deps, log *slog.Logger) *Handler {
	if deps.Demo == nil || deps.Usage == nil || deps.Checkout == nil ||
		deps.Portal == nil || deps.Webhooks == nil || deps.Generator == nil {
		panic("api: all service dependencies are required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{deps: deps, log: log}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(identity.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/demo-status", h.handleDemoStatus)
		r.Get("/subscription", h.handleSubscription)
		r.Post("/checkout", h.handleCheckout)
		r.Post("/portal", h.handlePortal)
		r.Post("/webhook", h.handleWebhook)
		r.Post("/generate", h.handleGenerate)
	})
	r.Get("/healthz", h.handleHealth)

	return r
}
