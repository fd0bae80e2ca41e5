package google

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/domain"
)

const (
	testIssuer   = "https://accounts.google.com"
	testClientID = "test-client.apps.googleusercontent.com"
)

type idTokenClaims struct {
	Issuer   string `json:"iss"`
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
	Expiry   int64  `json:"exp"`
	IssuedAt int64  `json:"iat"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

type verifierHarness struct {
	verifier *Verifier
	key      *rsa.PrivateKey
}

func newVerifierHarness(t *testing.T) *verifierHarness {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	v := newVerifier(
		oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID}),
		zap.NewNop(),
	)
	return &verifierHarness{verifier: v, key: key}
}

func (h *verifierHarness) sign(t *testing.T, claims idTokenClaims) string {
	t.Helper()
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.RS256, Key: h.key},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)
	token, err := gojwt.Signed(signer).Claims(claims).Serialize()
	require.NoError(t, err)
	return token
}

func validClaims() idTokenClaims {
	now := time.Now()
	return idTokenClaims{
		Issuer:   testIssuer,
		Subject:  "109876543210123456789",
		Audience: testClientID,
		Expiry:   now.Add(time.Hour).Unix(),
		IssuedAt: now.Unix(),
		Email:    "a@x.com",
		Name:     "Ana Garcia",
		Picture:  "https://lh3.googleusercontent.com/photo.jpg",
	}
}

func TestVerifier_ValidToken(t *testing.T) {
	h := newVerifierHarness(t)
	token := h.sign(t, validClaims())

	claims, err := h.verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "109876543210123456789", claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "Ana Garcia", claims.Name)
	require.NotNil(t, claims.Picture)
	require.Equal(t, "https://lh3.googleusercontent.com/photo.jpg", *claims.Picture)
}

func TestVerifier_MissingPictureIsNil(t *testing.T) {
	h := newVerifierHarness(t)
	c := validClaims()
	c.Picture = ""
	token := h.sign(t, c)

	claims, err := h.verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Nil(t, claims.Picture)
}

func TestVerifier_BlankTokenIsContractViolation(t *testing.T) {
	h := newVerifierHarness(t)
	for _, raw := range []string{"", "  "} {
		_, err := h.verifier.Verify(context.Background(), raw)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestVerifier_ExpiredToken(t *testing.T) {
	h := newVerifierHarness(t)
	c := validClaims()
	c.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	c.Expiry = time.Now().Add(-time.Hour).Unix()
	token := h.sign(t, c)

	_, err := h.verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrInvalidGoogleCredential)
}

func TestVerifier_WrongAudience(t *testing.T) {
	h := newVerifierHarness(t)
	c := validClaims()
	c.Audience = "someone-else.apps.googleusercontent.com"
	token := h.sign(t, c)

	_, err := h.verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrInvalidGoogleCredential)
}

func TestVerifier_UntrustedKey(t *testing.T) {
	h := newVerifierHarness(t)
	intruder := newVerifierHarness(t)
	token := intruder.sign(t, validClaims())

	_, err := h.verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrInvalidGoogleCredential)
}

func TestVerifier_MalformedToken(t *testing.T) {
	h := newVerifierHarness(t)
	_, err := h.verifier.Verify(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, domain.ErrInvalidGoogleCredential)
}

func TestVerifier_MissingRequiredClaims(t *testing.T) {
	h := newVerifierHarness(t)

	for name, mutate := range map[string]func(*idTokenClaims){
		"no email": func(c *idTokenClaims) { c.Email = "" },
		"no name":  func(c *idTokenClaims) { c.Name = "" },
	} {
		t.Run(name, func(t *testing.T) {
			c := validClaims()
			mutate(&c)
			token := h.sign(t, c)
			_, err := h.verifier.Verify(context.Background(), token)
			require.ErrorIs(t, err, domain.ErrInvalidGoogleCredential)
		})
	}
}

func TestNewVerifier_RequiresClientID(t *testing.T) {
	_, err := NewVerifier(context.Background(), DefaultIssuer, DefaultJWKSURL, "", zap.NewNop())
	require.Error(t, err)
}
