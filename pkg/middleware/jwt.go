package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/session"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
)

// AccessTokenParam carries the JWT for websocket upgrades, where browsers
// cannot set an Authorization header.
const AccessTokenParam = "access_token"

var noSessRoutes = map[string]bool{
	"register": true,
	"login":    true,
}

func CheckJWT(sessions session.Repository, secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		method, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route := mux.CurrentRoute(r); route != nil && noSessRoutes[route.GetName()] {
				next.ServeHTTP(w, r)
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w)
				return
			}

			c := &claims.Claims{}
			token, err := jwt.ParseWithClaims(raw, c, keyFunc)
			if err != nil || !token.Valid || c.User.ID == "" {
				logger.Warn("rejected token", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}

			ok, err := sessions.IsValid(r.Context(), c.User.ID)
			if err != nil {
				logger.Error("session lookup", "user", c.User.ID, "error", err)
			}
			if err != nil || !ok {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claims.TokenContextKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get(AccessTokenParam)
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "code": "UNAUTHORIZED"})
}
