// Package jwt signs and verifies the service's own session tokens.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/stillmind/identity/internal/domain"
)

// DefaultTTL is the session validity window. Expiry forces re-login; there is
// no refresh mechanism.
const DefaultTTL = 24 * time.Hour

// SessionIssuer mints HS256 session JWTs carrying the internal user id as
// subject, and verifies them on later requests. The token is self-contained:
// no server-side session state exists.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer constructs an issuer. The secret must be at least 32 bytes.
func NewSessionIssuer(secret []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue mints a signed credential for the profile with exp = iat + TTL.
// A signing failure is a configuration error, not a request-level one.
func (i *SessionIssuer) Issue(profile domain.UserProfile) (domain.SessionCredential, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: i.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return domain.SessionCredential{}, fmt.Errorf("new signer: %w", err)
	}

	now := i.now().UTC()
	claims := gojwt.Claims{
		Subject:  profile.ID.String(),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(i.ttl)),
	}

	token, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return domain.SessionCredential{}, fmt.Errorf("sign session token: %w", err)
	}

	return domain.SessionCredential{Token: token, UserID: profile.ID}, nil
}

// Verify checks the token's signature and expiry and returns the user id it
// encodes. Expiry is compared with zero leeway.
func (i *SessionIssuer) Verify(rawToken string) (uuid.UUID, error) {
	if strings.TrimSpace(rawToken) == "" {
		return uuid.Nil, fmt.Errorf("%w: session token must not be blank", domain.ErrInvalidArgument)
	}

	parsed, err := gojwt.ParseSigned(rawToken, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}

	var claims gojwt.Claims
	if err := parsed.Claims(i.secret, &claims); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}
	if err := claims.ValidateWithLeeway(gojwt.Expected{Time: i.now().UTC()}, 0); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id: %v", domain.ErrInvalidSessionToken, err)
	}
	return userID, nil
}
