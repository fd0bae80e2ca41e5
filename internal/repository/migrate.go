package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usersMigration = `
CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    google_id text NOT NULL,
    email text NOT NULL,
    display_name text NOT NULL,
    avatar_url text,
    created_at timestamptz NOT NULL,
    CONSTRAINT users_google_id_unique UNIQUE (google_id)
);
`

// Migrate creates the users table if it does not exist. The unique constraint
// on google_id is the backstop for concurrent first logins.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, usersMigration); err != nil {
		return fmt.Errorf("run users migration: %w", err)
	}
	return nil
}
