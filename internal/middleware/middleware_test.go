// AngelaMos | 2026
// middleware_test.go

package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/weddingplanner/internal/config"
	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/middleware"
)

type stubVerifier struct {
	claims *middleware.AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(_ context.Context, _ string) (*middleware.AccessTokenClaims, error) {
	return s.claims, s.err
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{
			name:     "expired",
			header:   "Bearer tok",
			verifier: stubVerifier{err: core.ErrTokenExpired},
			status:   http.StatusUnauthorized,
		},
		{
			name:     "valid",
			header:   "Bearer tok",
			verifier: stubVerifier{claims: &middleware.AccessTokenClaims{UserID: "u1", Role: "authenticated"}},
			status:   http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := middleware.Authenticator(tc.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", seen)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	for role, want := range map[string]int{
		"admin":         http.StatusOK,
		"authenticated": http.StatusForbidden,
	} {
		verifier := stubVerifier{claims: &middleware.AccessTokenClaims{UserID: "u1", Role: role}}
		h := middleware.Authenticator(verifier)(middleware.RequireAdmin(http.HandlerFunc(okHandler)))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":402`)
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := middleware.Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiter_FallsBackToLocalWhenRedisIsDown(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(1, 2),
		KeyFunc: middleware.KeyByPrefix("notify", middleware.IPKey(false)),
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments/notify", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Len(t, codes, 3)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestKeyByPrefix(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4000"

	assert.Equal(t, "ratelimit:ip:203.0.113.7", middleware.KeyByIP(req))
	assert.Equal(t, "ratelimit:notify:ip:203.0.113.7", middleware.KeyByPrefix("notify", nil)(req))
}

func TestIPKey_ForwardingHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 192.0.2.9")
	req.Header.Set("X-Real-IP", "192.0.2.44")

	assert.Equal(t, "ratelimit:ip:10.0.0.5", middleware.IPKey(false)(req))
	assert.Equal(t, "ratelimit:ip:192.0.2.9", middleware.IPKey(true)(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "ratelimit:ip:192.0.2.44", middleware.IPKey(true)(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "ratelimit:ip:10.0.0.5", middleware.IPKey(true)(req))
}

func TestRateLimiter_RotatingForwardedForSharesBucket(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(1, 2),
		KeyFunc: middleware.KeyByPrefix("notify", middleware.IPKey(false)),
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := range 3 {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments/notify", nil)
		req.RemoteAddr = "203.0.113.8:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_LocalFallbackConcurrentUse(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(1000, 1000),
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.RemoteAddr = fmt.Sprintf("203.0.113.%d:4000", i%4)
				h.ServeHTTP(httptest.NewRecorder(), req)
			}
		}()
	}
	wg.Wait()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPerWindow(t *testing.T) {
	t.Parallel()

	hourly := middleware.PerWindow(10, 5, time.Hour)
	assert.Equal(t, time.Hour, hourly.Period)
	assert.Equal(t, 10, hourly.Rate)
	assert.Equal(t, 5, hourly.Burst)

	assert.Equal(t, time.Minute, middleware.PerWindow(1, 1, 0).Period)
	assert.Equal(t, time.Minute, middleware.PerMinute(1, 1).Period)
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(true)(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	h := middleware.CORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/v1/weddings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
