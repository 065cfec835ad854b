package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-calendar/internal/event"
	"go-calendar/internal/middleware"
	"go-calendar/internal/model"
	"go-calendar/internal/repository"
	"go-calendar/internal/service"
	"go-calendar/internal/token"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrUserAlreadyExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

type memEvents struct {
	mu    sync.Mutex
	items map[string]model.Event
}

func (m *memEvents) List(context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e)
	}
	return out, nil
}

func (m *memEvents) FindByID(_ context.Context, id string) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return model.Event{}, model.ErrEventNotFound
	}
	return e, nil
}

func (m *memEvents) Create(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = e
	return nil
}

func (m *memEvents) Update(ctx context.Context, e model.Event) error {
	return m.Create(ctx, e)
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

type testEnv struct {
	router   http.Handler
	codec    *token.Codec
	redis    *miniredis.Miniredis
	sessions *repository.RedisSessionStore
}

// newTestEnv mounts the handlers on a chi router the way the application does,
// backed by in-memory stores and a miniredis session store.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	codec, err := token.NewCodec([]byte("handler-test-secret"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := &memUsers{byID: map[string]model.User{}}
	sessions := repository.NewRedisSessionStore(client, users, "test", 7*24*time.Hour)

	issuer := service.NewSessionIssuer(codec, sessions, 15*time.Minute, 7*24*time.Hour)
	authService := service.NewAuthService(users, sessions, issuer, nil)
	authService.SetBcryptCost(bcrypt.MinCost)
	eventService := service.NewEventService(&memEvents{items: map[string]model.Event{}}, event.NewBus(), nil)

	authn := middleware.NewAuthenticator(codec)
	cookies := CookieConfig{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}
	authHandler := NewAuthHandler(authService, authn, cookies)
	eventHandler := NewEventHandler(eventService)

	r := chi.NewRouter()
	r.Route("/api/auth", func(auth chi.Router) {
		auth.Post("/register", authHandler.Register)
		auth.Post("/login", authHandler.Login)
		auth.Post("/refresh", authHandler.Refresh)
		auth.Post("/logout", authHandler.Logout)
		auth.With(authn.RequireAuth).Get("/me", authHandler.Me)
	})
	r.Route("/api/events", func(events chi.Router) {
		events.Use(authn.RequireAuth)
		events.Get("/", eventHandler.List)
		events.Post("/", eventHandler.Create)
		events.Get("/{id}", eventHandler.Get)
		events.Put("/{id}", eventHandler.Update)
		events.Delete("/{id}", eventHandler.Delete)
	})

	return testEnv{router: r, codec: codec, redis: mr, sessions: sessions}
}

func (e testEnv) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) register(t *testing.T, name, email string) model.AuthResult {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result model.AuthResult
	decodeData(t, rec, &result)
	return result
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var envelope model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}
