package billing

import (
	"context"
	"time"

	"github.com/inkstrip/inkstrip/svc/usage"
)

// ProcessedEvent is one row per distinct webhook event ever applied. The
// unique event ID is the idempotency boundary for at-least-once delivery.
type ProcessedEvent struct {
	EventID         string
	EventType       string
	SourceCreatedAt time.Time
	ReceivedAt      time.Time
}

// Consent is append-only audit evidence that a user accepted subscription
// terms before checkout. It is written here and read only by compliance
// tooling, never by the engine itself.
type Consent struct {
	ID         string
	UserID     string
	Kind       string
	Version    string
	AcceptedAt time.Time
	ClientIP   string
	UserAgent  string
}

// Store defines the persistence interface for billing state.
type Store interface {
	// GetUser retrieves a user by ID. Returns usage.ErrUserNotFound if absent.
	GetUser(ctx context.Context, id string) (*usage.User, error)

	// GetUserByCustomerID retrieves a user by billing customer ID.
	// Returns usage.ErrUserNotFound if absent.
	GetUserByCustomerID(ctx context.Context, customerID string) (*usage.User, error)

	// SetBillingCustomer upserts the user record with its processor customer ID.
	// Users are created lazily here on first purchase attempt.
	SetBillingCustomer(ctx context.Context, userID, email, customerID string) error

	// SetPlan updates the user's plan together with the billing customer and
	// subscription IDs reported by the processor. Returns usage.ErrUserNotFound
	// if the user does not exist.
	SetPlan(ctx context.Context, userID string, plan usage.Plan, customerID, subscriptionID string) error

	// ResetPlan downgrades the user to free and clears the subscription ID.
	ResetPlan(ctx context.Context, userID string) error

	// MarkEventProcessed inserts a ProcessedEvent row. Returns duplicate=true
	// when an event with the same ID was already recorded; the insert must be
	// atomic (unique-constraint) so racing deliveries resolve to exactly one
	// winner.
	MarkEventProcessed(ctx context.Context, event ProcessedEvent) (duplicate bool, err error)

	// InsertConsent appends one consent record.
	InsertConsent(ctx context.Context, consent Consent) error
}
