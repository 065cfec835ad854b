package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-calendar/internal/middleware"
	"go-calendar/internal/model"
	"go-calendar/internal/service"
	"go-calendar/pkg/apierror"
)

type identityResolver interface {
	Authenticate(r *http.Request) (model.Identity, error)
}

type AuthHandler struct {
	service *service.AuthService
	authn   identityResolver
	cookies CookieConfig
}

func NewAuthHandler(service *service.AuthService, authn identityResolver, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, authn: authn, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setSession(w, result.TokenPair)
	writeSuccess(w, http.StatusCreated, result, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setSession(w, result.TokenPair)
	writeSuccess(w, http.StatusOK, result, nil)
}

// Refresh accepts the refresh token from the JSON body or the refresh_token
// cookie. Every failure is a 401.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload model.RefreshRequest
	if err := decodeOptionalJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	presented := strings.TrimSpace(payload.RefreshToken)
	if presented == "" {
		if cookie, err := r.Cookie(model.RefreshTokenCookie); err == nil {
			presented = strings.TrimSpace(cookie.Value)
		}
	}
	if presented == "" {
		writeError(w, apierror.Unauthorized("Refresh token not found"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), presented, actorFromRequest(r))
	if err != nil {
		if !errors.Is(err, model.ErrInvalidToken) && !errors.Is(err, model.ErrSessionNotFound) {
			slog.Warn("refresh failed", "error", err)
		}
		writeError(w, apierror.Unauthorized("Invalid refresh token"))
		return
	}

	h.cookies.setSession(w, pair)
	writeSuccess(w, http.StatusOK, pair, nil)
}

// Logout never fails. The stored refresh token is cleared when the caller's
// access token still resolves; the cookies are expired regardless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authn.Authenticate(r)
	if err == nil {
		err = h.service.EndSession(r.Context(), identity, actorFromRequest(r))
		if err != nil {
			slog.Warn("logout could not clear stored session", "user_id", identity.UserID, "error", err)
		}
	} else if !errors.Is(err, model.ErrUnauthorized) {
		slog.Debug("logout without a valid access token", "error", err)
	}

	h.cookies.clearSession(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.ProfileData{User: user, AccessToken: middleware.AccessToken(r)}, nil)
}
