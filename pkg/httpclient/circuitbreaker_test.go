package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBreaker(name string, mutate func(*CircuitBreakerConfig)) *CircuitBreakerClient {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MinRequests = 3
	cfg.Timeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	return NewCircuitBreakerClient(New(fastConfig(0)), cfg, testLogger())
}

func trip(t *testing.T, cb *CircuitBreakerClient, url string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		_, err := cb.Get(context.Background(), url)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())
}

func statusServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte("pricing backend down"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("catalog")
	assert.Equal(t, "catalog", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, uint32(4), cfg.MinRequests)
}

func TestCircuitBreaker_Success(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := statusServer(t, &status, nil)

	cb := newBreaker("catalog-success", nil)
	resp, err := cb.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(circuitBreakerRequests.WithLabelValues("catalog-success", "success")))
}

func TestCircuitBreaker_ServerErrorIsUpstreamError(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	server := statusServer(t, &status, nil)

	_, err := newBreaker("catalog-5xx", nil).Get(context.Background(), server.URL)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "catalog-5xx", upstream.Service)
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	assert.Equal(t, "pricing backend down", upstream.Body)
}

func TestCircuitBreaker_OpenRejectsWithServiceUnavailable(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	server := statusServer(t, &status, &hits)

	cb := newBreaker("catalog-open", nil)
	trip(t, cb, server.URL)
	before := hits.Load()

	_, err := cb.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Contains(t, appErr.Message, "catalog-open")

	assert.Equal(t, before, hits.Load(), "open breaker must not reach the upstream")
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("catalog-open")))
	assert.Equal(t, float64(1), testutil.ToFloat64(circuitBreakerRequests.WithLabelValues("catalog-open", "rejected")))
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	server := statusServer(t, &status, nil)

	cb := newBreaker("catalog-recovery", func(c *CircuitBreakerConfig) {
		c.Timeout = 100 * time.Millisecond
	})
	trip(t, cb, server.URL)

	time.Sleep(150 * time.Millisecond)
	status.Store(http.StatusOK)

	resp, err := cb.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	server := statusServer(t, &status, nil)

	cb := newBreaker("catalog-4xx", nil)
	for i := 0; i < 5; i++ {
		resp, err := cb.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	cb := newBreaker("catalog-cancel", nil)
	for i := 0; i < 4; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := cb.Get(ctx, server.URL)
		require.Error(t, err)
		cancel()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
