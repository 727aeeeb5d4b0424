package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocations answers whether the identity service has revoked a token
// since it was issued. The write side lives with the issuer; cashdesk only
// reads the shared Redis keys, so the interface carries no revoke methods.
type TokenRevocations interface {
	// IsRevoked reports whether a single token, identified by its JTI,
	// has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// IsUserRevoked reports whether all of a user's tokens issued at or
	// before the recorded cutoff have been invalidated (forced logout,
	// password change).
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "token:blacklist:"

// RedisTokenRevocations reads the revocation keys the identity service
// maintains. Key layout is shared with the issuer: per-token JTI flags and
// per-user invalidation timestamps.
type RedisTokenRevocations struct {
	client *redis.Client
}

// NewRedisTokenRevocations wraps an existing Redis client
func NewRedisTokenRevocations(client *redis.Client) *RedisTokenRevocations {
	return &RedisTokenRevocations{client: client}
}

func (r *RedisTokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, revocationKeyPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisTokenRevocations) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	cutoffStr, err := r.client.Get(ctx, revocationKeyPrefix+"user:"+userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(cutoffStr, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation cutoff: %w", err)
	}

	// Tokens issued at or before the cutoff are out
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenRevocations = (*RedisTokenRevocations)(nil)

// InMemoryTokenRevocations is a test double. The Revoke helpers stand in for
// the identity service's write side and are not part of TokenRevocations.
type InMemoryTokenRevocations struct {
	mu      sync.RWMutex
	jtis    map[string]struct{}
	cutoffs map[string]time.Time
}

func NewInMemoryTokenRevocations() *InMemoryTokenRevocations {
	return &InMemoryTokenRevocations{
		jtis:    make(map[string]struct{}),
		cutoffs: make(map[string]time.Time),
	}
}

// Revoke marks a single token as revoked
func (r *InMemoryTokenRevocations) Revoke(jti string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = struct{}{}
}

// RevokeUser invalidates every token the user holds as of now
func (r *InMemoryTokenRevocations) RevokeUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs[userID] = time.Now()
}

func (r *InMemoryTokenRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, revoked := r.jtis[jti]
	return revoked, nil
}

func (r *InMemoryTokenRevocations) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff, exists := r.cutoffs[userID]
	if !exists {
		return false, nil
	}
	// Nanosecond precision so a token minted right before the cutoff is caught
	return issuedAt.UnixNano() <= cutoff.UnixNano(), nil
}

var _ TokenRevocations = (*InMemoryTokenRevocations)(nil)
