package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-calendar/internal/model"
)

const uniqueViolation = "23505"

// UserRepository stores users and, in the refresh_token column, the single
// refresh token currently issued to each of them.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, name, email, password_hash, refresh_token, created_at, updated_at
		 FROM users WHERE id::text = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, name, email, password_hash, refresh_token, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetRefreshToken overwrites whatever token the user held. Last writer wins.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID string, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id::text = $1`,
		userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindUserByValidRefreshToken(ctx context.Context, userID string, token string) (model.Identity, error) {
	var identity model.Identity
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, email FROM users
		 WHERE id::text = $1 AND refresh_token IS NOT NULL AND refresh_token = $2`,
		userID, token).Scan(&identity.UserID, &identity.Email)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Identity{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("find user by refresh token: %w", err)
	}
	return identity, nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = $2 WHERE id::text = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
