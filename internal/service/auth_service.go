package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/stillmind/identity/internal/domain"
	"github.com/stillmind/identity/internal/google"
	"github.com/stillmind/identity/internal/repository"
)

// TokenIssuer mints and verifies session credentials.
type TokenIssuer interface {
	Issue(profile domain.UserProfile) (domain.SessionCredential, error)
	Verify(rawToken string) (uuid.UUID, error)
}

// ProfileCache is the read-through cache port for profile lookups. Get
// returns nil without error on a miss.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error)
	Set(ctx context.Context, profile domain.UserProfile) error
}

// AuthService orchestrates the login and logout use cases: verify the Google
// credential, resolve the user profile, mint a session token. It keeps no
// state between attempts.
type AuthService struct {
	verifier google.CredentialVerifier
	users    repository.UserRepository
	issuer   TokenIssuer
	profiles ProfileCache
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAuthService wires dependencies. profiles may be nil when Redis is not
// configured; profile reads then go straight to the store.
func NewAuthService(
	verifier google.CredentialVerifier,
	users repository.UserRepository,
	issuer TokenIssuer,
	profiles ProfileCache,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.L()
	}
	return &AuthService{
		verifier: verifier,
		users:    users,
		issuer:   issuer,
		profiles: profiles,
		logger:   logger,
		tracer:   otel.Tracer("github.com/stillmind/identity/internal/service"),
		now:      time.Now,
	}
}

// Login validates the Google id_token, resolves the internal profile
// (creating it on first login) and mints a session credential. Verification
// failures propagate unchanged; a blank token is rejected before any
// external call.
func (s *AuthService) Login(ctx context.Context, rawIDToken string) (*domain.LoginResult, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, fmt.Errorf("%w: id token must not be blank", domain.ErrInvalidArgument)
	}

	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	claims, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	profile, err := s.resolveProfile(ctx, claims)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	credential, err := s.issuer.Issue(profile)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("login succeeded",
		zap.String("user_id", profile.ID.String()),
		zap.String("google_id", profile.GoogleID),
	)
	return &domain.LoginResult{Credential: credential, Profile: profile}, nil
}

// resolveProfile returns the stored profile for the Google subject, creating
// it when absent. An existing record is reused verbatim: email, name and
// avatar drift in the fresh claims is ignored.
func (s *AuthService) resolveProfile(ctx context.Context, claims domain.GoogleClaims) (domain.UserProfile, error) {
	existing, err := s.users.FindByGoogleID(ctx, claims.Subject)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.UserProfile{}, fmt.Errorf("find user: %w", err)
	}

	created, err := s.users.Create(ctx, domain.NewUserProfile(claims, s.now().UTC()))
	if err == nil {
		s.logger.Info("user profile created",
			zap.String("user_id", created.ID.String()),
			zap.String("google_id", created.GoogleID),
		)
		return created, nil
	}
	if !errors.Is(err, domain.ErrUserExists) {
		return domain.UserProfile{}, fmt.Errorf("create user: %w", err)
	}

	// Lost a concurrent first-login race; reuse the winner's record.
	winner, err := s.users.FindByGoogleID(ctx, claims.Subject)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("reread user after conflict: %w", err)
	}
	return winner, nil
}

// Logout validates the token argument and intentionally does nothing else:
// session tokens are stateless and expire on their own. The method exists so
// a revocation list can be added later without changing the call contract.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return fmt.Errorf("%w: session token must not be blank", domain.ErrInvalidArgument)
	}
	_, span := s.tracer.Start(ctx, "AuthService.Logout")
	defer span.End()
	return nil
}

// Profile loads the profile behind an authenticated principal, through the
// read cache when one is configured. Cache failures degrade to store reads.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (domain.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Profile")
	defer span.End()

	if s.profiles != nil {
		cached, err := s.profiles.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("profile cache read failed", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.UserProfile{}, err
		}
		return domain.UserProfile{}, fmt.Errorf("find user by id: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.Set(ctx, profile); err != nil {
			s.logger.Warn("profile cache write failed", zap.Error(err))
		}
	}
	return profile, nil
}
