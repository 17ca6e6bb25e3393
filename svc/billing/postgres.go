package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkstrip/inkstrip/pkg/pg"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// PostgresStore implements Store on a pgx connection pool. It shares the
// users table with the usage store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed billing store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const userColumns = `id, email, plan, COALESCE(billing_customer_id, ''), COALESCE(billing_subscription_id, '')`

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*usage.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByCustomerID(ctx context.Context, customerID string) (*usage.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE billing_customer_id = $1`, customerID)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*usage.User, error) {
	var user usage.User
	var plan string
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &plan, &user.BillingCustomerID, &user.BillingSubscriptionID,
	)
	if pg.IsNotFoundError(err) {
		return nil, usage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("billing: failed to get user: %w", err)
	}
	user.Plan = usage.ParsePlan(plan)

	return &user, nil
}

func (s *PostgresStore) SetBillingCustomer(ctx context.Context, userID, email, customerID string) error {
	const query = `
		INSERT INTO users (id, email, billing_customer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET billing_customer_id = EXCLUDED.billing_customer_id, updated_at = now()`

	if _, err := s.pool.Exec(ctx, query, userID, email, customerID); err != nil {
		return fmt.Errorf("billing: failed to set billing customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPlan(ctx context.Context, userID string, plan usage.Plan, customerID, subscriptionID string) error {
	const query = `
		UPDATE users
		SET plan = $2,
			billing_customer_id = COALESCE(NULLIF($3, ''), billing_customer_id),
			billing_subscription_id = NULLIF($4, ''),
			updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, string(plan), customerID, subscriptionID)
	if err != nil {
		return fmt.Errorf("billing: failed to set plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usage.ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) ResetPlan(ctx context.Context, userID string) error {
	const query = `
		UPDATE users
		SET plan = 'free', billing_subscription_id = NULL, updated_at = now()
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("billing: failed to reset plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkEventProcessed(ctx context.Context, event ProcessedEvent) (bool, error) {
	const query = `
		INSERT INTO processed_events (event_id, event_type, source_created_at, received_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, event.EventID, event.EventType, event.SourceCreatedAt, event.ReceivedAt)
	if pg.IsDuplicateKeyError(err) {
		// A concurrent or earlier delivery of the same event won the insert.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("billing: failed to mark event processed: %w", err)
	}
	return false, nil
}

func (s *PostgresStore) InsertConsent(ctx context.Context, consent Consent) error {
	const query = `
		INSERT INTO consents (id, user_id, kind, version, accepted_at, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))`

	_, err := s.pool.Exec(ctx, query,
		consent.ID, consent.UserID, consent.Kind, consent.Version,
		consent.AcceptedAt, consent.ClientIP, consent.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("billing: failed to insert consent: %w", err)
	}
	return nil
}
