package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

//go:embed assets/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "assets/*.html"))

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	render(w, "login.html", map[string]string{"CallbackURL": safeCallback(r.URL.Query().Get("callbackUrl"))})
}

func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	render(w, "register.html", nil)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	render(w, "dashboard.html", nil)
}

func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render page", "page", name, "error", err)
	}
}

// safeCallback keeps post-login redirects on this origin.
func safeCallback(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return "/dashboard"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return "/dashboard"
	}
	return raw
}
