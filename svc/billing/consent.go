package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ConsentKindCheckout marks consent collected in the subscription checkout flow.
const ConsentKindCheckout = "subscription_checkout"

// maxUserAgentLength caps stored user agents; anything longer is truncated.
const maxUserAgentLength = 512

// ConsentRecorder persists evidence that a user accepted subscription terms.
// Writes are best-effort: a failed insert is logged and swallowed so a
// storage hiccup never blocks a checkout the user already consented to.
type ConsentRecorder struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewConsentRecorder creates a consent recorder over the given store.
func NewConsentRecorder(store Store, log *slog.Logger) *ConsentRecorder {
	if store == nil {
		panic("billing: store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ConsentRecorder{store: store, log: log, now: time.Now}
}

// Record appends one consent record. Returns false when the write failed;
// callers proceed regardless.
func (r *ConsentRecorder) Record(ctx context.Context, userID, version, clientIP, userAgent string) bool {
	if len(userAgent) > maxUserAgentLength {
		userAgent = userAgent[:maxUserAgentLength]
	}

	consent := Consent{
		ID:         uuid.New().String(),
		UserID:     userID,
		Kind:       ConsentKindCheckout,
		Version:    version,
		AcceptedAt: r.now().UTC(),
		ClientIP:   clientIP,
		UserAgent:  userAgent,
	}

	if err := r.store.InsertConsent(ctx, consent); err != nil {
		r.log.WarnContext(ctx, "failed to store consent evidence",
			"user_id", userID, "version", version, "error", err)
		return false
	}
	return true
}
