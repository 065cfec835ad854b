package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-calendar/internal/model"
	"go-calendar/pkg/apierror"
)

type authFixture struct {
	svc      *AuthService
	users    *memUsers
	sessions *memSessions
	audit    *memAudit
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	users := newMemUsers()
	sessions := newMemSessions(users)
	audit := &memAudit{}
	issuer, _ := newTestIssuer(t, sessions)

	svc := NewAuthService(users, sessions, issuer, NewAuditService(audit))
	svc.SetBcryptCost(bcrypt.MinCost)

	return authFixture{svc: svc, users: users, sessions: sessions, audit: audit}
}

func (f authFixture) register(t *testing.T, name, email, password string) model.AuthResult {
	t.Helper()

	result, err := f.svc.Register(context.Background(), model.RegisterRequest{Name: name, Email: email, Password: password}, model.AuditActor{IP: "127.0.0.1"})
	require.NoError(t, err)
	return result
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	result := f.register(t, "  Ada  ", "Ada@Example.com", "correct-horse")

	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "Ada", result.User.Name)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.NotEmpty(t, result.AccessToken)

	stored, ok := f.sessions.stored(result.User.ID)
	require.True(t, ok)
	assert.Equal(t, result.RefreshToken, stored)

	user, err := f.users.FindByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	assert.Equal(t, []string{"auth.register:success"}, f.audit.actions())
}

func TestAuthService_RegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  model.RegisterRequest
	}{
		{name: "missing name", req: model.RegisterRequest{Email: "a@example.com", Password: "long-enough"}},
		{name: "missing email", req: model.RegisterRequest{Name: "A", Password: "long-enough"}},
		{name: "missing password", req: model.RegisterRequest{Name: "A", Email: "a@example.com"}},
		{name: "bad email", req: model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "long-enough"}},
		{name: "short password", req: model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)

			_, err := f.svc.Register(context.Background(), tc.req, model.AuditActor{})
			var apiErr *apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
			assert.Zero(t, f.users.calls)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	f.register(t, "Ada", "ada@example.com", "correct-horse")

	_, err := f.svc.Register(context.Background(), model.RegisterRequest{Name: "Other", Email: "ADA@example.com", Password: "another-pass"}, model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
	assert.Contains(t, f.audit.actions(), "auth.register:failure")
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	registered := f.register(t, "Ada", "ada@example.com", "correct-horse")

	result, err := f.svc.Login(context.Background(), " ADA@example.com ", "correct-horse", model.AuditActor{})
	require.NoError(t, err)
	assert.Equal(t, registered.User, result.User)

	stored, _ := f.sessions.stored(registered.User.ID)
	assert.Equal(t, result.RefreshToken, stored)

	_, err = f.svc.Refresh(context.Background(), registered.RefreshToken, model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	f.register(t, "Ada", "ada@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "ada@example.com", "wrong-horse", model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "nobody@example.com", "correct-horse", model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "", "", model.AuditActor{})
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)

	assert.Equal(t, []string{
		"auth.register:success",
		"auth.login:failure",
		"auth.login:failure",
	}, f.audit.actions())
}

func TestAuthService_RefreshAndEndSession(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	registered := f.register(t, "Ada", "ada@example.com", "correct-horse")
	ctx := context.Background()

	pair, err := f.svc.Refresh(ctx, registered.RefreshToken, model.AuditActor{})
	require.NoError(t, err)

	identity := model.Identity{UserID: registered.User.ID, Email: registered.User.Email}
	require.NoError(t, f.svc.EndSession(ctx, identity, model.AuditActor{}))

	_, ok := f.sessions.stored(registered.User.ID)
	assert.False(t, ok)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, model.AuditActor{})
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestAuthService_EndSessionReportsStoreFailure(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	registered := f.register(t, "Ada", "ada@example.com", "correct-horse")
	f.sessions.clearErr = errBackend

	err := f.svc.EndSession(context.Background(), model.Identity{UserID: registered.User.ID}, model.AuditActor{})
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, f.audit.actions(), "auth.logout:failure")
}

func TestAuthService_Profile(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	registered := f.register(t, "Ada", "ada@example.com", "correct-horse")

	profile, err := f.svc.Profile(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PublicUser{ID: registered.User.ID, Name: "Ada", Email: "ada@example.com"}, profile)

	_, err = f.svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestAuditService_NilSafeAndSwallowsErrors(t *testing.T) {
	t.Parallel()

	var nilService *AuditService
	assert.NotPanics(t, func() {
		nilService.Log(context.Background(), model.AuditActionLogin, model.AuditActor{}, model.AuditStatusSuccess, "", "")
	})

	store := &memAudit{err: errBackend}
	assert.NotPanics(t, func() {
		NewAuditService(store).Log(context.Background(), model.AuditActionLogin, model.AuditActor{}, model.AuditStatusSuccess, "", "")
	})
}

func TestAuditService_ListForActorScopesQuery(t *testing.T) {
	t.Parallel()

	store := &memAudit{}
	svc := NewAuditService(store)
	ctx := context.Background()

	svc.Log(ctx, model.AuditActionLogin, model.AuditActor{UserID: "u-1"}, model.AuditStatusSuccess, "", "")
	svc.Log(ctx, model.AuditActionLogin, model.AuditActor{UserID: "u-2"}, model.AuditStatusSuccess, "", "")

	entries, meta, err := svc.ListForActor(ctx, "u-1", model.AuditQuery{ActorID: "u-2"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u-1", entries[0].Actor.UserID)
	assert.Equal(t, 1, meta.Total)
}
