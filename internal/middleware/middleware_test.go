package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetRequestID(r.Context())
			assert.True(t, ok)
			seen = id
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/items", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/api/items", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("absent", func(t *testing.T) {
		_, ok := GetRequestID(context.Background())
		assert.False(t, ok)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFormatter(&log.JSONFormatter{})
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{})
	}()

	handler := RequestID(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))
	req := httptest.NewRequest("POST", "/api/items", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"path":"/api/items"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestMetrics_Instrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r := mux.NewRouter()
	r.Use(metrics.Instrument)
	r.HandleFunc("/api/items/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/items/7", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(
		metrics.requests.WithLabelValues("GET", "/api/items/{id:[0-9]+}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
}

func TestMetrics_Unmatched(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r := mux.NewRouter()
	r.NotFoundHandler = metrics.Instrument(http.NotFoundHandler())
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestRateLimitMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("rate limit not exceeded", func(t *testing.T) {
		handler := NewRateLimitMiddleware(5, time.Minute, false).RateLimit(okHandler)
		req := httptest.NewRequest("GET", "/api/items", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		handler := NewRateLimitMiddleware(1, time.Minute, false).RateLimit(okHandler)
		req := httptest.NewRequest("GET", "/api/items", nil)
		req.RemoteAddr = "192.168.1.2:12345"

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"message":"Rate limit exceeded"}`, w.Body.String())

		// other clients are counted separately
		other := httptest.NewRequest("GET", "/api/items", nil)
		other.RemoteAddr = "192.168.1.3:12345"
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, other)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("window slides", func(t *testing.T) {
		m := NewRateLimitMiddleware(1, time.Minute, false)
		now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		require.True(t, m.allow("10.0.0.1"))
		require.False(t, m.allow("10.0.0.1"))
		now = now.Add(time.Minute + time.Second)
		assert.True(t, m.allow("10.0.0.1"))
	})

	t.Run("idle clients are forgotten", func(t *testing.T) {
		m := NewRateLimitMiddleware(1, time.Minute, false)
		now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		for i := 0; i < 50; i++ {
			require.True(t, m.allow(fmt.Sprintf("10.0.1.%d", i)))
		}
		assert.Len(t, m.requests, 50)

		now = now.Add(2 * time.Minute)
		require.True(t, m.allow("10.0.2.1"))
		assert.Len(t, m.requests, 1)
		assert.Contains(t, m.requests, "10.0.2.1")
	})

	t.Run("spoofed forwarded header", func(t *testing.T) {
		handler := NewRateLimitMiddleware(1, time.Minute, false).RateLimit(okHandler)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/api/items", nil)
			req.RemoteAddr = "192.168.1.4:12345"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	})

	t.Run("disabled", func(t *testing.T) {
		handler := NewRateLimitMiddleware(0, time.Minute, false).RateLimit(okHandler)
		for i := 0; i < 20; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/items", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "127.0.0.1:1", true, "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "127.0.0.1:1", true, "5.6.7.8"},
		{"remote addr", nil, "9.9.9.9:4567", true, "9.9.9.9"},
		{"untrusted forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "127.0.0.1:1", false, "127.0.0.1"},
		{"untrusted real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "127.0.0.1:1", false, "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req, tt.trustProxy))
		})
	}
}
