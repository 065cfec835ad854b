//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-calendar/internal/config"
	"go-calendar/internal/database"
	"go-calendar/internal/event"
	"go-calendar/internal/handler"
	"go-calendar/internal/middleware"
	"go-calendar/internal/model"
	"go-calendar/internal/repository"
	"go-calendar/internal/router"
	"go-calendar/internal/service"
	"go-calendar/internal/token"
	"go-calendar/internal/websocket"
)

// newServer wires the full stack against TEST_DATABASE_URL.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	cfg := &config.Config{
		RequestTimeout: 10 * time.Second,
		JWTSecret:      "integration-secret",
		JWTAccessTTL:   15 * time.Minute,
		JWTRefreshTTL:  24 * time.Hour,
		CORSOrigins:    []string{"*"},
	}

	codec, err := token.NewCodec([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	users := repository.NewUserRepository(db.Pool)
	audit := service.NewAuditService(repository.NewAuditRepository(db.Pool))
	issuer := service.NewSessionIssuer(codec, users, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(users, users, issuer, audit)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	t.Cleanup(stopHub)

	authn := middleware.NewAuthenticator(codec)
	guard := middleware.NewRouteGuard(middleware.DefaultGuardConfig(), codec)
	cookies := handler.CookieConfig{AccessTTL: cfg.JWTAccessTTL, RefreshTTL: cfg.JWTRefreshTTL}

	server := httptest.NewServer(router.New(cfg, authn, guard, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, authn, cookies),
		Event:  handler.NewEventHandler(service.NewEventService(repository.NewEventRepository(db.Pool), bus, audit)),
		Audit:  handler.NewAuditHandler(audit),
		Stream: handler.NewStreamHandler(hub, cfg.CORSOrigins),
		Page:   handler.NewPageHandler(),
		Docs:   handler.NewDocsHandler(),
		Health: handler.NewHealthHandler(db),
	}))
	t.Cleanup(server.Close)

	return server
}

// newBrowser returns a client that keeps cookies and does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 10 * time.Second,
	}
}

func uniqueEmail() string {
	return "user-" + uuid.NewString() + "@example.com"
}

func postJSON(t *testing.T, client *http.Client, url string, payload any, bearer string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	return doRequest(t, client, http.MethodPost, url, body, bearer)
}

func doRequest(t *testing.T, client *http.Client, method, url string, body io.Reader, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *model.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success, "error: %+v", envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}
