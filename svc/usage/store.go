package usage

import (
	"context"
	"time"
)

// Store defines the persistence interface for the usage ledger.
type Store interface {
	// GetUser retrieves a user by ID.
	// Returns ErrUserNotFound if no record exists; callers treat an unknown
	// user as a free-plan user.
	GetUser(ctx context.Context, id string) (*User, error)

	// CountEventsSince returns the number of usage events for the user with
	// createdAt on or after the given instant.
	CountEventsSince(ctx context.Context, userID string, since time.Time) (int, error)

	// CountEventsByKindSince is CountEventsSince restricted to one kind.
	CountEventsByKindSince(ctx context.Context, userID string, kind Kind, since time.Time) (int, error)

	// InsertEvent appends one immutable usage event stamped with the current time.
	InsertEvent(ctx context.Context, userID string, kind Kind) error
}
