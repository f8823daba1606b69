package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noit/research-api/internal/api/middleware"
	"github.com/noit/research-api/internal/auth"
	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	identity domain.Identity
	err      error
	gotToken string
}

func (s *stubResolver) Resolve(ctx context.Context, token string, now time.Time) (domain.Identity, error) {
	s.gotToken = token
	return s.identity, s.err
}

func TestAuth(t *testing.T) {
	alice := domain.Identity{UserID: 7, Email: "alice@example.com"}

	tests := []struct {
		name           string
		header         string
		resolver       *stubResolver
		expectedStatus int
		wantToken      string
		wantNext       bool
	}{
		{
			name:           "valid bearer",
			header:         "Bearer good-token",
			resolver:       &stubResolver{identity: alice},
			expectedStatus: http.StatusOK,
			wantToken:      "good-token",
			wantNext:       true,
		},
		{
			name:           "scheme is case insensitive",
			header:         "bearer good-token",
			resolver:       &stubResolver{identity: alice},
			expectedStatus: http.StatusOK,
			wantToken:      "good-token",
			wantNext:       true,
		},
		{
			name:           "missing header",
			resolver:       &stubResolver{identity: alice},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			header:         "Token good-token",
			resolver:       &stubResolver{identity: alice},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "blank token",
			header:         "Bearer   ",
			resolver:       &stubResolver{identity: alice},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			header:         "Bearer old",
			resolver:       &stubResolver{err: fmt.Errorf("%w: %w", service.ErrUnauthorized, auth.ErrTokenExpired)},
			expectedStatus: http.StatusUnauthorized,
			wantToken:      "old",
		},
		{
			name:           "store outage",
			header:         "Bearer good-token",
			resolver:       &stubResolver{err: errors.New("connection refused")},
			expectedStatus: http.StatusInternalServerError,
			wantToken:      "good-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Identity
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				var ok bool
				got, ok = middleware.GetIdentity(r.Context())
				require.True(t, ok)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/history", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(tt.resolver, logging.Discard())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
			assert.Equal(t, tt.wantToken, tt.resolver.gotToken)

			switch tt.expectedStatus {
			case http.StatusOK:
				assert.Equal(t, alice, got)
			case http.StatusUnauthorized:
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, rec.Body.String())
			case http.StatusInternalServerError:
				assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
		})
	}
}

func TestAuth_LogsReasonServerSideOnly(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "debug", "json")
	resolver := &stubResolver{err: fmt.Errorf("%w: %w", service.ErrUnauthorized, auth.ErrTokenExpired)}

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("Authorization", "Bearer old")
	rec := httptest.NewRecorder()

	middleware.Auth(resolver, log)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), auth.ErrTokenExpired.Error())
	assert.NotContains(t, rec.Body.String(), "expired")
}

func TestGetIdentity_Missing(t *testing.T) {
	_, ok := middleware.GetIdentity(context.Background())
	assert.False(t, ok)
}
