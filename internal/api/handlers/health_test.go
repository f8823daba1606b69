package handlers_test

import (
	"net/http"
	"testing"

	"github.com/noit/research-api/internal/api/handlers"
	"github.com/noit/research-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.FrontendOrigins = []string{"http://localhost:8080", "https://app.example.com"}
	ts := testutil.NewTestServer(t, testutil.WithConfig(cfg))

	for _, url := range []string{ts.URL("/health"), ts.APIURL("/health")} {
		t.Run(url, func(t *testing.T) {
			resp, err := http.Get(url)
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, http.StatusOK)
			var result handlers.HealthResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, "ok", result.Status)
			assert.Equal(t, cfg.FrontendOrigins, result.AllowedOrigins)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL("/query"), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	resp := testutil.Do(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodOptions, ts.URL("/query"), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp = testutil.Do(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)
}
