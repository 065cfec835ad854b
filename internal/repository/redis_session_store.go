package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-calendar/internal/model"
)

type userFinder interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

// RedisSessionStore keeps each user's current refresh token under
// <prefix>:refresh:<userID>. User records still come from the primary store,
// so a deleted user cannot refresh even while the key lives.
type RedisSessionStore struct {
	client redis.Cmdable
	users  userFinder
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client redis.Cmdable, users userFinder, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "calendar"
	}
	return &RedisSessionStore{client: client, users: users, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(userID string) string {
	return s.prefix + ":refresh:" + userID
}

func (s *RedisSessionStore) SetRefreshToken(ctx context.Context, userID string, token string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(userID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) FindUserByValidRefreshToken(ctx context.Context, userID string, token string) (model.Identity, error) {
	stored, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Identity{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("get refresh token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return model.Identity{}, model.ErrSessionNotFound
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Identity{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Identity{}, err
	}

	return model.Identity{UserID: user.ID, Email: user.Email}, nil
}

func (s *RedisSessionStore) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
