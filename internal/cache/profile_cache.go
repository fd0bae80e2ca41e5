// Package cache provides a Redis read-through cache for user profiles.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stillmind/identity/internal/domain"
)

const profileKeyPrefix = "identity:profile:"

// ProfileCache caches user profiles by internal id. Profiles are immutable
// after creation, so a short TTL only bounds memory, not staleness.
type ProfileCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewProfileCache constructs a Redis-backed profile cache.
func NewProfileCache(client redis.UniversalClient, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// Get returns the cached profile, or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	payload, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached profile: %w", err)
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, nil
}

// Set stores the profile with the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, profile domain.UserProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(profile.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}
	return nil
}

func profileKey(id uuid.UUID) string {
	return profileKeyPrefix + id.String()
}
