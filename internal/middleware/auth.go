package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-calendar/internal/model"
	"go-calendar/internal/token"
)

type tokenVerifier interface {
	Verify(tokenString string) (token.Claims, bool)
}

type contextKey string

const identityContextKey contextKey = "auth_identity"

// Authenticator turns the access token on a request into an Identity.
type Authenticator struct {
	verifier tokenVerifier
}

func NewAuthenticator(verifier tokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Authenticate reads the bearer header first and the access_token cookie
// second. It returns model.ErrUnauthorized when neither is present and
// model.ErrInvalidToken when the candidate does not verify.
func (a *Authenticator) Authenticate(r *http.Request) (model.Identity, error) {
	candidate := AccessToken(r)
	if candidate == "" {
		return model.Identity{}, model.ErrUnauthorized
	}

	return a.identityFromToken(candidate)
}

func (a *Authenticator) identityFromToken(raw string) (model.Identity, error) {
	claims, ok := a.verifier.Verify(raw)
	if !ok {
		return model.Identity{}, model.ErrInvalidToken
	}

	userID, _, ok := claims.UserID()
	if !ok {
		return model.Identity{}, model.ErrInvalidToken
	}

	return model.Identity{UserID: userID, Email: claims.Email}, nil
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Authenticate(r)
		if err != nil {
			message := "Authentication required"
			if errors.Is(err, model.ErrInvalidToken) {
				message = "Invalid authentication token"
			}
			writeUnauthorized(w, message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}

// AccessToken returns the raw access token a request presents, header first.
func AccessToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	return cookieValue(r, model.AccessTokenCookie)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
