package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/principal"
)

const bearerScheme = "Bearer"

// TokenVerifier validates a raw session token and returns the user id it
// encodes.
type TokenVerifier interface {
	Verify(rawToken string) (uuid.UUID, error)
}

// BearerToken extracts the credential from an Authorization header value.
// Reports false when the header is absent, uses another scheme, or carries
// an empty credential. The scheme comparison is case-insensitive.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SessionAuth runs on every request before the handlers. It extracts a bearer
// credential from the Authorization header and, when the token verifies,
// attaches the principal to the request context. A missing or invalid token
// leaves the request anonymous and never aborts it; endpoints that need a
// principal enforce it through the principal package.
func SessionAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("session token rejected", zap.Error(err))
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(principal.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
