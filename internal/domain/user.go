package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the aggregate root for an authenticated end user. The ID
// generated at first login is the identifier every other subsystem uses to
// refer to the user.
//
// GoogleID is the uniqueness key: one Google account maps to at most one
// profile, and the field never changes after creation. Later logins reuse the
// stored record verbatim, even when Google reports a different email, name or
// picture.
type UserProfile struct {
	ID          uuid.UUID
	GoogleID    string
	Email       string
	DisplayName string
	AvatarURL   *string
	CreatedAt   time.Time
}

// NewUserProfile builds a profile for a first-time login. A fresh internal id
// is generated here; the creation timestamp is stamped once and never updated.
func NewUserProfile(claims GoogleClaims, now time.Time) UserProfile {
	return UserProfile{
		ID:          uuid.New(),
		GoogleID:    claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		CreatedAt:   now,
	}
}
