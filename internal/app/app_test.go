package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cardshop/internal/catalog"
	"github.com/utafrali/cardshop/internal/config"
	"github.com/utafrali/cardshop/pkg/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.CatalogMockDelay = 0
	cfg.LoginDelay = 0
	return cfg
}

func TestNewLoader_Static(t *testing.T) {
	loader, check := newLoader(testConfig(t), nil, testLogger())

	assert.IsType(t, &catalog.StaticLoader{}, loader)
	assert.Nil(t, check)

	product, err := loader.Load(context.Background(), "standard")
	require.NoError(t, err)
	assert.NoError(t, product.Validate())
}

func TestNewLoader_RemoteWithBreakerCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogURL = "http://catalog.invalid"

	loader, check := newLoader(cfg, nil, testLogger())

	assert.IsType(t, &catalog.HTTPLoader{}, loader)
	require.NotNil(t, check)
	assert.NoError(t, check(context.Background()))
}

func TestNewLoader_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	loader, _ := newLoader(testConfig(t), rdb, testLogger())
	require.IsType(t, &catalog.CachedLoader{}, loader)

	_, err := loader.Load(context.Background(), "pro")
	require.NoError(t, err)
	assert.True(t, mr.Exists("product:pro"))
}

func TestNewApp_ServesShop(t *testing.T) {
	a, err := NewApp(testConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.producer)
	assert.Nil(t, a.rdb)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/shop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_checkout":false`)
}

func TestNewApp_CacheRegistersRedisCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.CatalogCacheEnabled = true
	cfg.RedisAddr = mr.Addr()

	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp health.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, health.StatusUp, resp.Checks["redis"].Status)

	mr.Close()
	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestShutdown_WaitsForDefaultProduct(t *testing.T) {
	a, err := NewApp(testConfig(t), testLogger())
	require.NoError(t, err)

	pending := a.shop.LoadProduct(context.Background(), "pro")
	require.NoError(t, a.Shutdown())

	select {
	case <-pending.Done():
	case <-time.After(time.Second):
		t.Fatal("product load still pending after shutdown")
	}
	assert.Equal(t, "pro", a.shop.Snapshot().ProductType)
}

func TestReadiness_DownAfterShutdown(t *testing.T) {
	a, err := NewApp(testConfig(t), testLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, a.Shutdown())

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp health.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, health.StatusDown, resp.Checks["shop"].Status)
}
