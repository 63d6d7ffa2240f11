package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motolog/internal/config"
	"github.com/ukydev/motolog/internal/db"
	"github.com/ukydev/motolog/internal/maintenance"
	"github.com/ukydev/motolog/internal/middleware"
)

func newTestServer(t *testing.T, rate config.RateLimit) *httptest.Server {
	svc := maintenance.NewService(db.NewMemoryCollection(), maintenance.Options{})
	srv := httptest.NewServer(newRouter(svc, prometheus.NewRegistry(), rate))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, config.RateLimit{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestServer_MetricsCountRequests(t *testing.T) {
	srv := newTestServer(t, config.RateLimit{})

	body := `{"name":"Chain","cost":80,"serviceDate":"2024-01-15","serviceOdometer":10000,"intervalDistance":2000,"intervalMonths":12}`
	resp, err := http.Post(srv.URL+"/api/items", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), `motolog_http_requests_total{code="201",method="POST",route="/api/items"} 1`)
	assert.Contains(t, string(data), "motolog_http_request_duration_seconds")
	assert.Contains(t, string(data), "go_goroutines")
}

func TestServer_RateLimit(t *testing.T) {
	srv := newTestServer(t, config.RateLimit{Requests: 2, Window: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/api/items")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServer_UnmatchedRequestsAreInstrumented(t *testing.T) {
	srv := newTestServer(t, config.RateLimit{})

	resp, err := http.Get(srv.URL + "/api/items/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/items", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(data), `motolog_http_requests_total{code="404",method="GET",route="unmatched"} 1`)
	assert.Contains(t, string(data), `motolog_http_requests_total{code="405",method="PATCH",route="unmatched"} 1`)
}

func TestServer_RateLimitUnmatched(t *testing.T) {
	srv := newTestServer(t, config.RateLimit{Requests: 1, Window: time.Minute})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/api/items/abc")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusTooManyRequests}, codes)
}

func TestStoreOptions(t *testing.T) {
	opts := storeOptions(config.Store{Backend: "mongo", SQLitePath: "x.db", MongoURI: "mongodb://db", MongoDB: "motolog"})
	assert.Equal(t, db.Options{Backend: "mongo", SQLitePath: "x.db", MongoURI: "mongodb://db", MongoDB: "motolog"}, opts)
}
