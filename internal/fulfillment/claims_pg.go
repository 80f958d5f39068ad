package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClaimStore is a Postgres-backed ClaimStore. A unique row per event
// id gives the atomic claim-once semantics; an expired row may be re-claimed.
type PostgresClaimStore struct {
	pool *pgxpool.Pool
}

// NewPostgresClaimStore creates a new Postgres-backed claim store.
func NewPostgresClaimStore(pool *pgxpool.Pool) *PostgresClaimStore {
	return &PostgresClaimStore{pool: pool}
}

// EnsureSchema creates the claims table if it does not exist.
func (s *PostgresClaimStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fulfillment_claims (
			event_id   TEXT PRIMARY KEY,
			claimed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating fulfillment_claims: %w", err)
	}
	return nil
}

// TryClaim inserts the claim row. The conditional upsert lets an expired
// claim be taken over while a live one stays owned by its first claimant.
func (s *PostgresClaimStore) TryClaim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO fulfillment_claims (event_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO UPDATE
			SET claimed_at = now(), expires_at = EXCLUDED.expires_at
			WHERE fulfillment_claims.expires_at < now()`,
		eventID, time.Now().Add(ttl))
	if err != nil {
		return false, fmt.Errorf("claiming event %q: %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// HealthCheck pings the database.
func (s *PostgresClaimStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
