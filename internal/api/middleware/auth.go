package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/service"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// UnauthorizedDetail is the body for every rejected credential so callers
// cannot tell an expired token from a forged one.
const UnauthorizedDetail = "Could not validate credentials"

type sessionResolver interface {
	Resolve(ctx context.Context, token string, now time.Time) (domain.Identity, error)
}

// Auth resolves the bearer token and stores the caller's Identity in the
// request context. Requests without a valid token never reach next.
func Auth(sessions sessionResolver, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Warn(r.Context(), "missing or malformed authorization header", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			identity, err := sessions.Resolve(r.Context(), token, time.Now())
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					log.Warn(r.Context(), "token rejected", "path", r.URL.Path, "reason", err)
					unauthorized(w)
					return
				}
				log.Error(r.Context(), "session lookup failed", "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, UnauthorizedDetail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
