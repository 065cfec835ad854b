package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-calendar/internal/model"
	"go-calendar/internal/token"
)

// SessionStore persists the one refresh token each user may hold.
type SessionStore interface {
	SetRefreshToken(ctx context.Context, userID string, token string) error
	FindUserByValidRefreshToken(ctx context.Context, userID string, token string) (model.Identity, error)
	ClearRefreshToken(ctx context.Context, userID string) error
}

type tokenCodec interface {
	Sign(payload token.Payload, ttl time.Duration) (string, error)
	Verify(tokenString string) (token.Claims, bool)
}

// SessionIssuer mints access/refresh pairs and rotates them on refresh.
type SessionIssuer struct {
	codec      tokenCodec
	store      SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionIssuer(codec tokenCodec, store SessionStore, accessTTL time.Duration, refreshTTL time.Duration) *SessionIssuer {
	return &SessionIssuer{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *SessionIssuer) AccessTTL() time.Duration  { return s.accessTTL }
func (s *SessionIssuer) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs a new pair and stores the refresh token, replacing any token
// the user held before.
func (s *SessionIssuer) Issue(ctx context.Context, userID string, email string) (model.TokenPair, error) {
	payload := token.Payload{Subject: userID, Email: email}

	accessToken, err := s.codec.Sign(payload, s.accessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := s.codec.Sign(payload, s.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.store.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a refresh token that verifies and is still the stored one
// for a fresh pair. Every failure denies; nothing is issued on partial checks.
func (s *SessionIssuer) Refresh(ctx context.Context, presented string) (model.Identity, model.TokenPair, error) {
	claims, ok := s.codec.Verify(presented)
	if !ok {
		return model.Identity{}, model.TokenPair{}, model.ErrInvalidToken
	}

	userID, _, ok := claims.UserID()
	if !ok {
		return model.Identity{}, model.TokenPair{}, model.ErrInvalidToken
	}

	identity, err := s.store.FindUserByValidRefreshToken(ctx, userID, presented)
	if errors.Is(err, model.ErrSessionNotFound) {
		return model.Identity{}, model.TokenPair{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Identity{}, model.TokenPair{}, fmt.Errorf("look up refresh token: %w", err)
	}

	pair, err := s.Issue(ctx, identity.UserID, identity.Email)
	if err != nil {
		return model.Identity{}, model.TokenPair{}, err
	}

	return identity, pair, nil
}
