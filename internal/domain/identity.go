package domain

import "github.com/google/uuid"

// GoogleClaims carries the verified claims extracted from a Google id_token.
// It lives for a single login attempt and is never persisted as-is.
type GoogleClaims struct {
	// Subject is Google's stable per-user identifier (the "sub" claim).
	Subject string
	Email   string
	Name    string
	// Picture is nil when Google does not provide a photo.
	Picture *string
}

// SessionCredential is the signed session token issued after login together
// with the user id it encodes. It holds no server-side state; the token alone
// is enough to reconstruct the principal on later requests.
type SessionCredential struct {
	Token  string
	UserID uuid.UUID
}

// LoginResult is the outcome of a successful login. Both fields are set.
type LoginResult struct {
	Credential SessionCredential
	Profile    UserProfile
}
