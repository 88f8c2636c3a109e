package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore maps opaque session tokens to logged-in user ids server-side.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "bookstore:session",
	}
}

func (s *redisSessionStore) key(token string) string {
	return fmt.Sprintf("%s:%s", s.prefix, token)
}

func (s *redisSessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}

	if err := s.client.Set(ctx, s.key(token.String()), userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: failed to store session: %w", err)
	}

	return token.String(), nil
}

func (s *redisSessionStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: failed to read session: %w", err)
	}

	userID, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: corrupt session value: %w", err)
	}

	return userID, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	return nil
}
