package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-calendar/internal/config"
	"go-calendar/internal/database"
	"go-calendar/internal/event"
	"go-calendar/internal/handler"
	"go-calendar/internal/logger"
	"go-calendar/internal/middleware"
	"go-calendar/internal/repository"
	"go-calendar/internal/router"
	"go-calendar/internal/service"
	"go-calendar/internal/token"
	"go-calendar/internal/websocket"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel))

	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.cleanup()
		}
	}()

	ctx := context.Background()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	eventRepo := repository.NewEventRepository(db.Pool)
	auditRepo := repository.NewAuditRepository(db.Pool)

	if users, err := userRepo.Count(ctx); err == nil {
		slog.Info("database ready", "users", users)
	}

	sessions, err := a.sessionStore(ctx, cfg, userRepo)
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	issuer := service.NewSessionIssuer(codec, sessions, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, sessions, issuer, auditService)

	bus := event.NewBus()
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(bus)
	go hub.Run(hubCtx)
	a.cleanupFuncs = append(a.cleanupFuncs, stopHub)

	eventService := service.NewEventService(eventRepo, bus, auditService)

	authn := middleware.NewAuthenticator(codec)
	guard := middleware.NewRouteGuard(middleware.DefaultGuardConfig(), codec)
	cookies := handler.CookieConfig{
		Secure:     cfg.SecureCookies(),
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
	}

	appRouter := router.New(cfg, authn, guard, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, authn, cookies),
		Event:  handler.NewEventHandler(eventService),
		Audit:  handler.NewAuditHandler(auditService),
		Stream: handler.NewStreamHandler(hub, cfg.CORSOrigins),
		Page:   handler.NewPageHandler(),
		Docs:   handler.NewDocsHandler(),
		Health: handler.NewHealthHandler(db),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	slog.Info("application configured",
		"env", cfg.Environment,
		"session_store", cfg.SessionStore,
		"access_ttl", cfg.JWTAccessTTL.String(),
		"refresh_ttl", cfg.JWTRefreshTTL.String(),
	)

	ok = true
	return a, nil
}

func (a *App) sessionStore(ctx context.Context, cfg *config.Config, users *repository.UserRepository) (service.SessionStore, error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return users, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	a.cleanupFuncs = append(a.cleanupFuncs, func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis session store ready", "addr", opts.Addr, "prefix", cfg.RedisKeyPrefix)
	return repository.NewRedisSessionStore(client, users, cfg.RedisKeyPrefix, cfg.JWTRefreshTTL), nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

// cleanup releases resources in reverse order of acquisition.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
