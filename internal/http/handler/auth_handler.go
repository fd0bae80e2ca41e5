package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/domain"
	"github.com/stillmind/identity/internal/http/middleware"
	"github.com/stillmind/identity/internal/principal"
	"github.com/stillmind/identity/internal/service"
)

// AuthHandler exposes the identity REST endpoints. It translates HTTP to
// use-case calls and errors to status codes; no business logic lives here.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

type googleAuthRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type authResponse struct {
	SessionToken string  `json:"sessionToken"`
	UserID       string  `json:"userId"`
	DisplayName  string  `json:"displayName"`
	Email        string  `json:"email"`
	AvatarURL    *string `json:"avatarUrl"`
}

type profileResponse struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatarUrl"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GoogleLogin handles POST /v1/identity/auth/google. Validates the Google
// id_token and returns a backend-issued session JWT together with the user's
// profile, creating the profile on first access.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: "idToken is required"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.IDToken)
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		SessionToken: result.Credential.Token,
		UserID:       result.Profile.ID.String(),
		DisplayName:  result.Profile.DisplayName,
		Email:        result.Profile.Email,
		AvatarURL:    result.Profile.AvatarURL,
	})
}

// Logout handles POST /v1/identity/auth/logout. Session tokens are stateless,
// so the call validates the bearer token argument and returns 204.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c.GetHeader("Authorization"))
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: "session token is required"})
			return
		}
		h.respondInternalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /v1/identity/me. Requires an authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := principal.RequireUserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "AUTHENTICATION_REQUIRED", Message: "A valid session token is required."})
		return
	}

	profile, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Code: "USER_NOT_FOUND", Message: "No profile exists for this session."})
			return
		}
		h.respondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		UserID:      profile.ID.String(),
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		AvatarURL:   profile.AvatarURL,
	})
}

// Healthz reports liveness.
func (h *AuthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidGoogleCredential):
		h.logger.Warn("google credential rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, errorResponse{
			Code:    "INVALID_GOOGLE_TOKEN",
			Message: "Sign-in failed. Please try again.",
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "BAD_REQUEST", Message: err.Error()})
	default:
		h.respondInternalError(c, err)
	}
}

func (h *AuthHandler) respondInternalError(c *gin.Context, err error) {
	h.logger.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "Unexpected error."})
}

