package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-calendar/internal/config"
	"go-calendar/internal/handler"
	"go-calendar/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Event  *handler.EventHandler
	Audit  *handler.AuditHandler
	Stream *handler.StreamHandler
	Page   *handler.PageHandler
	Docs   *handler.DocsHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authn *middleware.Authenticator, guard *middleware.RouteGuard, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(guard.Handler)

	r.Get("/health", h.Health.Check)
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/docs", h.Docs.SwaggerUI)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/", h.Page.Root)
	r.Get("/login", h.Page.Login)
	r.Get("/register", h.Page.Register)
	r.Get("/dashboard", h.Page.Dashboard)

	r.Route("/api", func(api chi.Router) {
		// The stream hijacks the connection, so it stays outside the timeout.
		api.With(authn.RequireAuth).Get("/events/stream", h.Stream.Events)

		api.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(cfg.RequestTimeout))

			timed.Route("/auth", func(auth chi.Router) {
				auth.Post("/register", h.Auth.Register)
				auth.Post("/login", h.Auth.Login)
				auth.Post("/refresh", h.Auth.Refresh)
				auth.Post("/logout", h.Auth.Logout)
				auth.With(authn.RequireAuth).Get("/me", h.Auth.Me)
			})

			timed.With(authn.RequireAuth).Get("/events", h.Event.List)
			timed.With(authn.RequireAuth).Post("/events", h.Event.Create)
			timed.With(authn.RequireAuth).Get("/events/{id}", h.Event.Get)
			timed.With(authn.RequireAuth).Put("/events/{id}", h.Event.Update)
			timed.With(authn.RequireAuth).Delete("/events/{id}", h.Event.Delete)

			timed.With(authn.RequireAuth).Get("/audit", h.Audit.List)
		})
	})

	return r
}
