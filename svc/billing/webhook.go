package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkstrip/inkstrip/pkg/webhook"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// Event is the provider's webhook envelope. Only the fields the processor
// acts on are decoded; the nested object stays raw until the event type is
// known.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// WebhookResult reports the outcome of processing a delivery.
type WebhookResult struct {
	EventID   string
	EventType string
	Duplicate bool
}

// Processor verifies, deduplicates, and applies billing webhook events.
type Processor struct {
	cfg   Config
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewProcessor creates the webhook processor.
func NewProcessor(cfg Config, store Store, log *slog.Logger) *Processor {
	if store == nil {
		panic("billing: store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Processor{cfg: cfg, store: store, log: log, now: time.Now}
}

// HandleEvent verifies the signature over the raw body, records the event
// under a unique constraint, and applies plan changes. Redeliveries of an
// already-recorded event return Duplicate=true without side effects.
func (p *Processor) HandleEvent(ctx context.Context, rawBody []byte, sigHeader string) (*WebhookResult, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, ErrBillingDisabled
	}

	header, err := webhook.ParseSignatureHeader(sigHeader)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if err := webhook.VerifySignature(p.cfg.WebhookSecret, rawBody, header, webhook.DefaultTolerance); err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("missing event id or type"))
	}

	duplicate, err := p.store.MarkEventProcessed(ctx, ProcessedEvent{
		EventID:         event.ID,
		EventType:       event.Type,
		SourceCreatedAt: time.Unix(event.Created, 0).UTC(),
		ReceivedAt:      p.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	result := &WebhookResult{EventID: event.ID, EventType: event.Type, Duplicate: duplicate}
	if duplicate {
		p.log.InfoContext(ctx, "duplicate webhook delivery ignored",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
		return result, nil
	}

	if err := p.applyEvent(ctx, event); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Processor) applyEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		return p.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event)
	default:
		p.log.DebugContext(ctx, "unhandled webhook event type",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
		return nil
	}
}

type checkoutSessionObject struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, event Event) error {
	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	userID := session.Metadata["user_id"]
	if userID == "" {
		p.log.WarnContext(ctx, "checkout completed without user metadata",
			slog.String("event_id", event.ID))
		return nil
	}

	plan := usage.ParsePlan(session.Metadata["plan"])
	if !plan.IsPaid() {
		plan = usage.PlanLite
	}

	err := p.store.SetPlan(ctx, userID, plan, session.Customer, session.Subscription)
	if errors.Is(err, usage.ErrUserNotFound) {
		p.log.WarnContext(ctx, "checkout completed for unknown user",
			slog.String("event_id", event.ID),
			slog.String("user_id", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}

	p.log.InfoContext(ctx, "subscription activated",
		slog.String("user_id", userID),
		slog.String("plan", string(plan)))
	return nil
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, event Event) error {
	var sub subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	user, err := p.store.GetUserByCustomerID(ctx, sub.Customer)
	if errors.Is(err, usage.ErrUserNotFound) {
		p.log.WarnContext(ctx, "subscription update for unknown customer",
			slog.String("event_id", event.ID),
			slog.String("customer_id", sub.Customer))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve customer: %w", err)
	}

	switch sub.Status {
	case "active", "trialing":
		priceID := ""
		if len(sub.Items.Data) > 0 {
			priceID = sub.Items.Data[0].Price.ID
		}
		plan := p.planFromPriceID(priceID)
		if err := p.store.SetPlan(ctx, user.ID, plan, sub.Customer, sub.ID); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		p.log.InfoContext(ctx, "subscription updated",
			slog.String("user_id", user.ID),
			slog.String("plan", string(plan)),
			slog.String("status", sub.Status))
	case "canceled", "unpaid", "past_due", "incomplete_expired":
		if err := p.store.ResetPlan(ctx, user.ID); err != nil {
			return fmt.Errorf("downgrade plan: %w", err)
		}
		p.log.InfoContext(ctx, "subscription lapsed",
			slog.String("user_id", user.ID),
			slog.String("status", sub.Status))
	default:
		p.log.DebugContext(ctx, "subscription status left unchanged",
			slog.String("user_id", user.ID),
			slog.String("status", sub.Status))
	}
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, event Event) error {
	var sub subscriptionObject
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}

	user, err := p.store.GetUserByCustomerID(ctx, sub.Customer)
	if errors.Is(err, usage.ErrUserNotFound) {
		p.log.WarnContext(ctx, "subscription deletion for unknown customer",
			slog.String("event_id", event.ID),
			slog.String("customer_id", sub.Customer))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve customer: %w", err)
	}

	if err := p.store.ResetPlan(ctx, user.ID); err != nil {
		return fmt.Errorf("downgrade plan: %w", err)
	}
	p.log.InfoContext(ctx, "subscription canceled",
		slog.String("user_id", user.ID))
	return nil
}

// planFromPriceID maps a provider price to a plan. Configured price IDs take
// precedence, the name heuristic covers prices created outside the current
// configuration.
func (p *Processor) planFromPriceID(priceID string) usage.Plan {
	switch {
	case priceID != "" && priceID == p.cfg.LitePriceID:
		return usage.PlanLite
	case priceID != "" && priceID == p.cfg.ProPriceID:
		return usage.PlanPro
	case strings.Contains(strings.ToLower(priceID), "lite"):
		return usage.PlanLite
	default:
		return usage.PlanPro
	}
}
