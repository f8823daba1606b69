package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noit/research-api/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowed        []string
		method         string
		origin         string
		preflight      bool
		expectedStatus int
		wantAllow      string
	}{
		{
			name:           "no origin passes through",
			allowed:        []string{"http://localhost:8080"},
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "allowed origin",
			allowed:        []string{"http://localhost:8080"},
			method:         http.MethodGet,
			origin:         "http://localhost:8080",
			expectedStatus: http.StatusOK,
			wantAllow:      "http://localhost:8080",
		},
		{
			name:           "allowed origin with trailing slash in config",
			allowed:        []string{"https://app.example.com/"},
			method:         http.MethodGet,
			origin:         "https://app.example.com",
			expectedStatus: http.StatusOK,
			wantAllow:      "https://app.example.com",
		},
		{
			name:           "disallowed origin simple request",
			allowed:        []string{"http://localhost:8080"},
			method:         http.MethodGet,
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "preflight allowed",
			allowed:        []string{"http://localhost:8080"},
			method:         http.MethodOptions,
			origin:         "http://localhost:8080",
			preflight:      true,
			expectedStatus: http.StatusNoContent,
			wantAllow:      "http://localhost:8080",
		},
		{
			name:           "preflight disallowed",
			allowed:        []string{"http://localhost:8080"},
			method:         http.MethodOptions,
			origin:         "https://evil.example.com",
			preflight:      true,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "wildcard",
			allowed:        []string{"*"},
			method:         http.MethodPost,
			origin:         "https://anything.example.com",
			expectedStatus: http.StatusOK,
			wantAllow:      "https://anything.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.CORS(middleware.CORSConfig{
				AllowedOrigins: tt.allowed,
				MaxAgeSeconds:  86400,
			})(okHandler)

			req := httptest.NewRequest(tt.method, "/query", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
			if tt.origin != "" {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			}
			if tt.expectedStatus == http.StatusNoContent {
				assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "Authorization, Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
				assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
