// File: clinicdesk/utils/auth_session.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AuthSession records a live admin login. Deleting it revokes the token.
type AuthSession struct {
	AdminID   string    `json:"adminId"`
	Email     string    `json:"email"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore keeps admin sessions keyed by the token hash.
type SessionStore interface {
	Save(ctx context.Context, tokenHash string, session AuthSession, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (*AuthSession, error)
	Delete(ctx context.Context, tokenHash string) error
}

// RedisSessionStore implements SessionStore on the auth Redis database.
type RedisSessionStore struct {
	Client *redis.Client
}

// Save stores the authentication session in Redis with a TTL.
func (s *RedisSessionStore) Save(ctx context.Context, tokenHash string, session AuthSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	if err := s.Client.Set(ctx, AuthSessionPrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save auth session: %w", err)
	}
	return nil
}

// Get returns nil without error when the session has expired or was revoked.
func (s *RedisSessionStore) Get(ctx context.Context, tokenHash string) (*AuthSession, error) {
	data, err := s.Client.Get(ctx, AuthSessionPrefix+tokenHash).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auth session: %w", err)
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// Delete removes an authentication session from Redis.
func (s *RedisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	return s.Client.Del(ctx, AuthSessionPrefix+tokenHash).Err()
}
