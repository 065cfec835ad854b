package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"go-calendar/internal/model"
)

type GuardConfig struct {
	// PublicPaths pass through without any check.
	PublicPaths []string
	// SelfAuthPaths pass through; their handlers authenticate on their own.
	SelfAuthPaths []string
	LoginPath     string
	APIPrefix     string
	CallbackParam string
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		PublicPaths: []string{
			"/login",
			"/register",
			"/api/auth/login",
			"/api/auth/register",
			"/api/auth/refresh",
			"/api/auth/logout",
			"/static",
			"/favicon.ico",
			"/health",
			"/openapi.yaml",
			"/docs",
		},
		SelfAuthPaths: []string{
			"/api/events",
			"/api/auth/me",
			"/api/audit",
		},
		LoginPath:     "/login",
		APIPrefix:     "/api/",
		CallbackParam: "callbackUrl",
	}
}

// RouteGuard is the coarse edge check. It only looks at the access_token
// cookie; bearer headers are honoured by the Authenticator on self-auth routes.
type RouteGuard struct {
	cfg      GuardConfig
	verifier tokenVerifier
}

func NewRouteGuard(cfg GuardConfig, verifier tokenVerifier) *RouteGuard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/"
	}
	if cfg.CallbackParam == "" {
		cfg.CallbackParam = "callbackUrl"
	}
	return &RouteGuard{cfg: cfg, verifier: verifier}
}

func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if matchesAny(path, g.cfg.PublicPaths) || matchesAny(path, g.cfg.SelfAuthPaths) {
			next.ServeHTTP(w, r)
			return
		}

		raw := cookieValue(r, model.AccessTokenCookie)
		if raw == "" {
			g.deny(w, r, "Authentication required")
			return
		}

		claims, ok := g.verifier.Verify(raw)
		if !ok {
			g.deny(w, r, "Invalid authentication token")
			return
		}
		if _, _, ok := claims.UserID(); !ok {
			g.deny(w, r, "Invalid authentication token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *RouteGuard) deny(w http.ResponseWriter, r *http.Request, message string) {
	if strings.HasPrefix(r.URL.Path, g.cfg.APIPrefix) {
		writeUnauthorized(w, message)
		return
	}

	target := g.cfg.LoginPath + "?" + url.Values{g.cfg.CallbackParam: {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
