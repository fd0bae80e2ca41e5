package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/stillmind/identity/internal/config"
	"github.com/stillmind/identity/internal/http/handler"
	"github.com/stillmind/identity/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware. The session middleware runs on
// every request; endpoints stay reachable without a principal and decide for
// themselves whether one is required.
func NewRouter(
	cfg config.Config,
	authHandler *handler.AuthHandler,
	verifier middleware.TokenVerifier,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.SessionAuth(verifier, nil))

	identity := r.Group("/v1/identity")
	{
		auth := identity.Group("/auth")
		{
			auth.POST("/google", authHandler.GoogleLogin)
			auth.POST("/logout", authHandler.Logout)
		}
		identity.GET("/me", authHandler.Me)
	}

	r.GET("/healthz", authHandler.Healthz)

	return r
}
