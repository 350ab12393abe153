package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// bearerToken returns the credential of a request with any "Bearer "
// prefix removed. When fromQuery is set the token query parameter is used
// if the header is absent, for board views that cannot set headers.
func bearerToken(r *http.Request, fromQuery bool) string {
	token := r.Header.Get("Authorization")
	if token == "" && fromQuery {
		token = r.URL.Query().Get("token")
	}
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

// AdminMiddleware guards the operator routes with a static key. An empty
// key rejects every request.
func AdminMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bearerToken(r, false)
			if key == "" {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				log.Warn("rejected admin request", "path", r.URL.Path, "remote", r.RemoteAddr)
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Session is the identity carried by a board integration request.
type Session struct {
	jwt.RegisteredClaims
	AccountID       json.Number `json:"accountId"`
	UserID          json.Number `json:"userId"`
	BackToURL       string      `json:"backToUrl,omitempty"`
	ShortLivedToken string      `json:"shortLivedToken"`
}

type sessionKey struct{}

// SessionFrom returns the session stored by SessionMiddleware.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// ParseSession verifies an HS256 session token signed with secret.
func ParseSession(secret []byte, tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Session{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	s, ok := token.Claims.(*Session)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if s.AccountID == "" {
		return nil, errors.New("token has no account")
	}
	return s, nil
}

// SessionMiddleware verifies the session token from the Authorization
// header, or the token query parameter when the header is absent.
func SessionMiddleware(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r, true)
			if tokenStr == "" {
				jsonError(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			s, err := ParseSession(secret, tokenStr)
			if err != nil {
				log.Warn("rejected session token", "path", r.URL.Path, "error", err)
				jsonError(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
