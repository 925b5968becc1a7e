package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(Deps{Cfg: cfg, Logg: logg})
}

func TestHealthLiveRoute(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-MintMotion-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/pricing/quote"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestPublicCatalogRouteExists(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Wired with no catalog backend the route still resolves, answering 500
	// rather than 404.
	if resp.Code == http.StatusNotFound {
		t.Fatal("templates route should be registered")
	}
}
