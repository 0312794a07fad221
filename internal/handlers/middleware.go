package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vidshare/apiserver/internal/services"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// RequireAuth enforces access-token authentication and injects the user id
// into the request context. The token comes from the Authorization header
// or, since login also sets it there, the accessToken cookie.
func RequireAuth(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticatedUserID(r, tokens)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), contextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injects the user id when a valid access token is present and
// passes the request through anonymously otherwise.
func OptionalAuth(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := authenticatedUserID(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), contextUserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticatedUserID(r *http.Request, tokens *services.TokenIssuer) (int, error) {
	tokenString, err := accessToken(r)
	if err != nil {
		return 0, err
	}
	return tokens.VerifyAccessToken(tokenString)
}

func accessToken(r *http.Request) (string, error) {
	if token, err := bearerToken(r); err == nil {
		return token, nil
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errors.New("missing access token")
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// Healthz is a trivial liveness endpoint.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
