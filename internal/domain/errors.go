package domain

import "errors"

var (
	// ErrInvalidArgument indicates a caller contract violation (blank or
	// malformed required input), rejected before any external call.
	ErrInvalidArgument = errors.New("identity: invalid argument")
	// ErrInvalidGoogleCredential indicates the Google id_token failed
	// verification: bad signature, expired, or malformed.
	ErrInvalidGoogleCredential = errors.New("identity: invalid google credential")
	// ErrInvalidSessionToken indicates an unverifiable or expired session token.
	ErrInvalidSessionToken = errors.New("identity: invalid session token")
	// ErrAuthenticationRequired signals that no authenticated principal is
	// attached to the current request.
	ErrAuthenticationRequired = errors.New("identity: authentication required")
	// ErrUserExists signals a unique-constraint conflict on the Google id.
	ErrUserExists = errors.New("identity: user already exists")
	// ErrUserNotFound signals an absent profile; a normal outcome for
	// first-time users.
	ErrUserNotFound = errors.New("identity: user not found")
)
