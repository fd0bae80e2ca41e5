package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/stillmind/identity/internal/domain"
)

// UserRepository persists user profiles keyed by internal id, with a
// uniqueness constraint on the Google subject id. Lookups return
// domain.ErrUserNotFound for absent records; Create returns
// domain.ErrUserExists when another writer already claimed the Google id.
type UserRepository interface {
	FindByGoogleID(ctx context.Context, googleID string) (domain.UserProfile, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.UserProfile, error)
	Create(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}
