// Package google verifies Google-issued id_tokens against Google's published
// signing keys and maps their claims into the domain.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/domain"
)

const (
	// DefaultIssuer is the iss value Google places in id_tokens.
	DefaultIssuer = "https://accounts.google.com"
	// DefaultJWKSURL serves Google's rotating public signing keys.
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// CredentialVerifier checks a raw externally issued identity token and
// extracts its claims. Implementations hold no user data.
type CredentialVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (domain.GoogleClaims, error)
}

// Verifier validates Google id_tokens (RS256) against Google's JWKS endpoint.
// The remote key set fetches keys on first use and refreshes them when an
// unknown key id appears, so all requests share one key cache and stale but
// valid keys keep serving reads during a refresh.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	logger   *zap.Logger
}

var _ CredentialVerifier = (*Verifier)(nil)

// NewVerifier builds a Verifier for the given issuer, JWKS endpoint and OAuth
// client id. ctx bounds the lifetime of background key refreshes.
func NewVerifier(ctx context.Context, issuer, jwksURL, clientID string, logger *zap.Logger) (*Verifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("google client id is required")
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = DefaultIssuer
	}
	if strings.TrimSpace(jwksURL) == "" {
		jwksURL = DefaultJWKSURL
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return newVerifier(oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID}), logger), nil
}

func newVerifier(v *oidc.IDTokenVerifier, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.L()
	}
	return &Verifier{verifier: v, logger: logger}
}

// Verify checks the token's signature, expiry and audience, then maps the
// Google claims into domain.GoogleClaims. A blank token is a contract
// violation and is rejected before any network call.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (domain.GoogleClaims, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return domain.GoogleClaims{}, fmt.Errorf("%w: id token must not be blank", domain.ErrInvalidArgument)
	}

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		v.logger.Debug("google id_token rejected", zap.Error(err))
		return domain.GoogleClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidGoogleCredential, err)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.GoogleClaims{}, fmt.Errorf("%w: parse claims: %v", domain.ErrInvalidGoogleCredential, err)
	}
	if idToken.Subject == "" || claims.Email == "" || claims.Name == "" {
		return domain.GoogleClaims{}, fmt.Errorf("%w: missing required claims", domain.ErrInvalidGoogleCredential)
	}

	var picture *string
	if claims.Picture != "" {
		picture = &claims.Picture
	}

	v.logger.Debug("google id_token verified",
		zap.String("subject", idToken.Subject),
		zap.Time("expiry", idToken.Expiry),
	)

	return domain.GoogleClaims{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: picture,
	}, nil
}
