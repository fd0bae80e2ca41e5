// Package principal carries the authenticated user identity through the
// request context. The session middleware is the only writer; downstream
// handlers read it through RequireUserID and must not accept identity from
// any other source.
package principal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stillmind/identity/internal/domain"
)

type contextKey struct{}

// WithUserID returns a context carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID reports the authenticated user id attached to ctx, if any.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// RequireUserID returns the authenticated user id or ErrAuthenticationRequired
// when the request carries no valid principal.
func RequireUserID(ctx context.Context) (uuid.UUID, error) {
	userID, ok := UserID(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: no authenticated user in request context", domain.ErrAuthenticationRequired)
	}
	return userID, nil
}
