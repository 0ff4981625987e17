package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lojavirtual/internal/telemetry"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestReadyHandler_Pinger(t *testing.T) {
	router := newTestRouter(t, testDeps())
	router.GET("/ready-ok", readyHandler(stubPinger{}))
	router.GET("/ready-down", readyHandler(stubPinger{err: errors.New("down")}))

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/ready-ok", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, httptest.NewRequest(http.MethodGet, "/ready-down", nil)).Code)
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	deps := testDeps()
	deps.CartSvc = nil
	_, err := New(":0", testLogger(), nil, deps, Options{})
	assert.Error(t, err)
}

func TestAliases_UnknownNamePanics(t *testing.T) {
	a := &api{logger: testLogger(), deps: testDeps()}
	aliases := a.aliases()

	assert.Len(t, aliases.Use("log.requests", "require.auth", "admin", "cart.rate.limit"), 4)
	assert.PanicsWithValue(t,
		`httpserver: unknown middleware alias "auth" (known: admin, cart.rate.limit, log.requests, require.auth)`,
		func() { aliases.Use("auth") })
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = serve(router, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := testDeps()
	deps.HTTPMetrics = telemetry.NewHTTPMetrics(reg)
	deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	router := newTestRouter(t, deps)

	serve(router, jsonRequest(http.MethodGet, "/products", "", ""))
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loja_http_requests_total{method="GET",path="/products",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(testLogger(), nil, testDeps(), Options{CORSOrigins: []string{"https://loja.example"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "https://loja.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(router, req)

	assert.Equal(t, "https://loja.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
