package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/config"
	"github.com/stillmind/identity/internal/domain"
	"github.com/stillmind/identity/internal/http/handler"
	"github.com/stillmind/identity/internal/jwt"
	"github.com/stillmind/identity/internal/service"
)

type stubVerifier struct {
	claims domain.GoogleClaims
	err    error
}

func (s *stubVerifier) Verify(context.Context, string) (domain.GoogleClaims, error) {
	if s.err != nil {
		return domain.GoogleClaims{}, s.err
	}
	return s.claims, nil
}

type memUserRepo struct {
	mu         sync.Mutex
	byGoogleID map[string]domain.UserProfile
}

func (m *memUserRepo) FindByGoogleID(_ context.Context, googleID string) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byGoogleID[googleID]; ok {
		return p, nil
	}
	return domain.UserProfile{}, domain.ErrUserNotFound
}

func (m *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byGoogleID {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.UserProfile{}, domain.ErrUserNotFound
}

func (m *memUserRepo) Create(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byGoogleID[profile.GoogleID]; ok {
		return domain.UserProfile{}, domain.ErrUserExists
	}
	m.byGoogleID[profile.GoogleID] = profile
	return profile, nil
}

type routerHarness struct {
	router   *gin.Engine
	verifier *stubVerifier
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	picture := "https://lh3.googleusercontent.com/photo.jpg"
	verifier := &stubVerifier{claims: domain.GoogleClaims{
		Subject: "109876543210123456789",
		Email:   "a@x.com",
		Name:    "Ana Garcia",
		Picture: &picture,
	}}

	issuer, err := jwt.NewSessionIssuer([]byte("0123456789abcdef0123456789abcdef"), jwt.DefaultTTL)
	require.NoError(t, err)

	users := &memUserRepo{byGoogleID: map[string]domain.UserProfile{}}
	auth := service.NewAuthService(verifier, users, issuer, nil, zap.NewNop())
	h := handler.NewAuthHandler(auth, zap.NewNop())

	cfg := config.Config{ServiceName: "identity-test"}
	return &routerHarness{
		router:   NewRouter(cfg, h, issuer, nil),
		verifier: verifier,
	}
}

func (h *routerHarness) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *routerHarness) login(t *testing.T) map[string]any {
	t.Helper()
	w := h.do(t, http.MethodPost, "/v1/identity/auth/google", gin.H{"idToken": "google-token"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGoogleLoginEndpoint(t *testing.T) {
	h := newRouterHarness(t)

	body := h.login(t)
	require.NotEmpty(t, body["sessionToken"])
	require.Equal(t, "a@x.com", body["email"])
	require.Equal(t, "Ana Garcia", body["displayName"])
	require.Equal(t, "https://lh3.googleusercontent.com/photo.jpg", body["avatarUrl"])
	_, err := uuid.Parse(body["userId"].(string))
	require.NoError(t, err)
}

func TestGoogleLoginEndpoint_SecondLoginKeepsUserID(t *testing.T) {
	h := newRouterHarness(t)

	first := h.login(t)
	second := h.login(t)
	require.Equal(t, first["userId"], second["userId"])
}

func TestGoogleLoginEndpoint_InvalidCredential(t *testing.T) {
	h := newRouterHarness(t)
	h.verifier.err = fmt.Errorf("%w: signature mismatch", domain.ErrInvalidGoogleCredential)

	w := h.do(t, http.MethodPost, "/v1/identity/auth/google", gin.H{"idToken": "forged"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_GOOGLE_TOKEN", body["code"])
}

func TestGoogleLoginEndpoint_MissingIDToken(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodPost, "/v1/identity/auth/google", gin.H{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "BAD_REQUEST", body["code"])
}

func TestLogoutEndpoint(t *testing.T) {
	h := newRouterHarness(t)
	token := h.login(t)["sessionToken"].(string)

	w := h.do(t, http.MethodPost, "/v1/identity/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// Logout is a no-op: the same token keeps working until it expires.
	w = h.do(t, http.MethodGet, "/v1/identity/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutEndpoint_MissingToken(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodPost, "/v1/identity/auth/logout", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	h := newRouterHarness(t)
	login := h.login(t)
	token := login["sessionToken"].(string)

	w := h.do(t, http.MethodGet, "/v1/identity/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, login["userId"], body["userId"])
	require.Equal(t, "a@x.com", body["email"])
}

func TestMeEndpoint_RequiresPrincipal(t *testing.T) {
	h := newRouterHarness(t)

	for name, header := range map[string]map[string]string{
		"no token":      nil,
		"garbage token": {"Authorization": "Bearer not-a-session"},
	} {
		t.Run(name, func(t *testing.T) {
			w := h.do(t, http.MethodGet, "/v1/identity/me", nil, header)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, "AUTHENTICATION_REQUIRED", body["code"])
		})
	}
}

func TestHealthzEndpoint(t *testing.T) {
	h := newRouterHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
