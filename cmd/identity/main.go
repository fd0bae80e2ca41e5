package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/cache"
	"github.com/stillmind/identity/internal/config"
	"github.com/stillmind/identity/internal/google"
	httptransport "github.com/stillmind/identity/internal/http"
	"github.com/stillmind/identity/internal/http/handler"
	"github.com/stillmind/identity/internal/http/middleware"
	"github.com/stillmind/identity/internal/jwt"
	"github.com/stillmind/identity/internal/repository"
	"github.com/stillmind/identity/internal/server"
	"github.com/stillmind/identity/internal/service"
	"github.com/stillmind/identity/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newProfileCache,
			newGoogleVerifier,
			newSessionIssuer,
			newAuthService,
			newAuthHandler,
			newRateLimiter,
			newRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

// newRedisClient connects to Redis when configured; the profile cache is
// optional and the service runs without it.
func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newProfileCache(client redis.UniversalClient, cfg config.Config) *cache.ProfileCache {
	if client == nil {
		return nil
	}
	return cache.NewProfileCache(client, cfg.ProfileCacheTTL)
}

func newGoogleVerifier(cfg config.Config, logger *zap.Logger) (*google.Verifier, error) {
	return google.NewVerifier(context.Background(), cfg.GoogleIssuer, cfg.GoogleJWKSURL, cfg.GoogleClientID, logger)
}

func newSessionIssuer(cfg config.Config) (*jwt.SessionIssuer, error) {
	return jwt.NewSessionIssuer([]byte(cfg.SessionSecret), cfg.SessionTokenTTL)
}

func newAuthService(
	verifier *google.Verifier,
	users repository.UserRepository,
	issuer *jwt.SessionIssuer,
	profiles *cache.ProfileCache,
	logger *zap.Logger,
) *service.AuthService {
	// A nil *ProfileCache must stay a nil interface downstream.
	var profileCache service.ProfileCache
	if profiles != nil {
		profileCache = profiles
	}
	return service.NewAuthService(verifier, users, issuer, profileCache, logger)
}

func newAuthHandler(auth *service.AuthService, logger *zap.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newRouter(
	cfg config.Config,
	authHandler *handler.AuthHandler,
	issuer *jwt.SessionIssuer,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	return httptransport.NewRouter(cfg, authHandler, issuer, rateLimiter)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			logger.Info("identity service listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
