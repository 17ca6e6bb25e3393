// Package usage accounts an authenticated user's generation consumption
// against their plan's monthly allowance.
//
// The month's count is the cardinality of an append-only event log filtered
// to createdAt >= the first instant of the current calendar month, so the
// window resets implicitly as the clock moves. The allowance check and the
// event append are separate operations with no spanning transaction: a burst
// of concurrent requests at the quota boundary can overshoot by a small
// margin, which is accepted.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Ledger computes quotas and records consumption.
type Ledger struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// Option configures the ledger.
type Option func(*Ledger)

// WithClock overrides the ledger's clock. Used by tests to pin the month window.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates a usage ledger over the given store.
func NewLedger(store Store, log *slog.Logger, opts ...Option) *Ledger {
	if store == nil {
		panic("usage: store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	l := &Ledger{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetUsage returns the user's current quota state.
// Free-plan users (including unknown users) are never allowed here; they are
// expected to be routed through the demo limiter instead.
func (l *Ledger) GetUsage(ctx context.Context, userID string) (*Quota, error) {
	plan, err := l.userPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !plan.IsPaid() {
		return &Quota{Plan: plan, Limit: 0, Allowed: false}, nil
	}

	used, err := l.store.CountEventsSince(ctx, userID, l.startOfMonth())
	if err != nil {
		return nil, errors.Join(ErrFailedToCountUsage, err)
	}

	limit := plan.MonthlyLimit()
	remaining := max(0, limit-used)

	return &Quota{
		Plan:      plan,
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		Allowed:   remaining > 0,
	}, nil
}

// Snapshot returns the full subscription view for the user, including the
// per-kind breakdown of this month's consumption.
func (l *Ledger) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	snap := &Snapshot{Plan: PlanFree}
	if user != nil {
		snap.Plan = user.Plan
		snap.Email = user.Email
		snap.HasBillingCustomer = user.BillingCustomerID != ""
		snap.UserKnown = true
	}
	snap.Limit = snap.Plan.MonthlyLimit()

	since := l.startOfMonth()

	total, err := l.store.CountEventsSince(ctx, userID, since)
	if err != nil {
		return nil, errors.Join(ErrFailedToCountUsage, err)
	}
	blog, err := l.store.CountEventsByKindSince(ctx, userID, KindBlog, since)
	if err != nil {
		return nil, errors.Join(ErrFailedToCountUsage, err)
	}
	movie, err := l.store.CountEventsByKindSince(ctx, userID, KindMovie, since)
	if err != nil {
		return nil, errors.Join(ErrFailedToCountUsage, err)
	}

	snap.Usage = Totals{Blog: blog, Movie: movie, Total: total}
	snap.Remaining = max(0, snap.Limit-total)

	return snap, nil
}

// RecordUsage appends one usage event. It must be called only after a
// generation actually succeeded, so failed generations never consume quota.
// A failed write is logged and swallowed: an occasional unmetered generation
// is preferable to failing a request the user already paid compute for.
func (l *Ledger) RecordUsage(ctx context.Context, userID string, kind Kind) bool {
	if err := l.store.InsertEvent(ctx, userID, kind); err != nil {
		l.log.ErrorContext(ctx, "failed to record usage event",
			"user_id", userID, "kind", string(kind), "error", err)
		return false
	}
	return true
}

func (l *Ledger) userPlan(ctx context.Context, userID string) (Plan, error) {
	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return PlanFree, nil
	}
	if err != nil {
		return PlanFree, err
	}
	return user.Plan, nil
}

// startOfMonth returns the first instant of the current calendar month in UTC.
func (l *Ledger) startOfMonth() time.Time {
	now := l.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
