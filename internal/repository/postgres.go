package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stillmind/identity/internal/domain"
)

// Compile-time interface assertion.
var _ UserRepository = (*PostgresUserRepo)(nil)

const uniqueViolationCode = "23505"

const (
	selectUserByGoogleID = `
SELECT id, google_id, email, display_name, avatar_url, created_at
FROM users
WHERE google_id = $1`

	selectUserByID = `
SELECT id, google_id, email, display_name, avatar_url, created_at
FROM users
WHERE id = $1`

	insertUser = `
INSERT INTO users (id, google_id, email, display_name, avatar_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, google_id, email, display_name, avatar_url, created_at`
)

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) FindByGoogleID(ctx context.Context, googleID string) (domain.UserProfile, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectUserByGoogleID, googleID))
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.UserProfile, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectUserByID, id))
}

// Create inserts the profile. A unique violation on google_id means another
// request created the profile concurrently; the caller re-reads and reuses
// the winning record.
func (r *PostgresUserRepo) Create(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	row := r.db.QueryRow(ctx, insertUser,
		profile.ID,
		profile.GoogleID,
		profile.Email,
		profile.DisplayName,
		profile.AvatarURL,
		profile.CreatedAt,
	)
	created, err := r.scanOne(row)
	if err == nil {
		return created, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.UserProfile{}, fmt.Errorf("%w: google_id %s", domain.ErrUserExists, profile.GoogleID)
	}
	return domain.UserProfile{}, fmt.Errorf("insert user: %w", err)
}

func (r *PostgresUserRepo) scanOne(row pgx.Row) (domain.UserProfile, error) {
	var u domain.UserProfile
	err := row.Scan(&u.ID, &u.GoogleID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return u, nil
}
