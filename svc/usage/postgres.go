package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkstrip/inkstrip/pkg/pg"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed usage store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT id, email, plan, COALESCE(billing_customer_id, ''), COALESCE(billing_subscription_id, '')
		FROM users
		WHERE id = $1`

	var user User
	var plan string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &plan, &user.BillingCustomerID, &user.BillingSubscriptionID,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("usage: failed to get user: %w", err)
	}
	user.Plan = ParsePlan(plan)

	return &user, nil
}

func (s *PostgresStore) CountEventsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM usage_events WHERE user_id = $1 AND created_at >= $2`

	var count int
	if err := s.pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("usage: failed to count events: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountEventsByKindSince(ctx context.Context, userID string, kind Kind, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM usage_events WHERE user_id = $1 AND kind = $2 AND created_at >= $3`

	var count int
	if err := s.pool.QueryRow(ctx, query, userID, string(kind), since).Scan(&count); err != nil {
		return 0, fmt.Errorf("usage: failed to count events by kind: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) InsertEvent(ctx context.Context, userID string, kind Kind) error {
	const query = `INSERT INTO usage_events (user_id, kind) VALUES ($1, $2)`

	if _, err := s.pool.Exec(ctx, query, userID, string(kind)); err != nil {
		return fmt.Errorf("usage: failed to insert event: %w", err)
	}
	return nil
}
