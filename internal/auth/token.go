package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/attarpos/attarpos/internal/shared"
)

// TokenManager issues and resolves opaque bearer tokens backed by Redis.
// The token value carries no claims; the identity lives server side with a TTL.
type TokenManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(client *redis.Client, ttl time.Duration) *TokenManager {
	return &TokenManager{client: client, ttl: ttl}
}

// Issue stores the identity and returns a fresh bearer token.
func (tm *TokenManager) Issue(ctx context.Context, id shared.Identity) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := tm.client.Set(ctx, tm.redisKey(token), payload, tm.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the identity behind a token, refreshing its TTL.
func (tm *TokenManager) Resolve(ctx context.Context, token string) (shared.Identity, error) {
	if token == "" {
		return shared.Identity{}, shared.ErrUnauthorized
	}
	payload, err := tm.client.Get(ctx, tm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Identity{}, shared.ErrUnauthorized
		}
		return shared.Identity{}, err
	}
	var id shared.Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return shared.Identity{}, shared.ErrUnauthorized
	}
	_ = tm.client.Expire(ctx, tm.redisKey(token), tm.ttl).Err()
	return id, nil
}

// Revoke invalidates a token.
func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := tm.client.Del(ctx, tm.redisKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// TTL exposes the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

func (tm *TokenManager) redisKey(token string) string {
	return "token:" + token
}
