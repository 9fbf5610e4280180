package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
)

func decodeLimited(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRateLimitMiddlewareLockout(t *testing.T) {
	t.Parallel()

	t.Run("threshold inside window starts cooldown", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 3, time.Minute, 5*time.Minute)

		m.RecordValidationFailure("203.0.113.5")
		m.RecordValidationFailure("203.0.113.5")
		require.False(t, m.IsBlocked("203.0.113.5"))

		m.RecordValidationFailure("203.0.113.5")
		require.True(t, m.IsBlocked("203.0.113.5"))
	})

	t.Run("failures for one client do not affect another", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 2, time.Minute, 5*time.Minute)

		m.RecordValidationFailure("203.0.113.5")
		m.RecordValidationFailure("203.0.113.5")

		require.True(t, m.IsBlocked("203.0.113.5"))
		require.False(t, m.IsBlocked("203.0.113.6"))
	})

	t.Run("stale failures outside the window are dropped", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 2, 50*time.Millisecond, 5*time.Minute)

		m.RecordValidationFailure("203.0.113.7")
		time.Sleep(80 * time.Millisecond)
		m.RecordValidationFailure("203.0.113.7")

		require.False(t, m.IsBlocked("203.0.113.7"))
	})

	t.Run("cooldown expires", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 1, time.Minute, 50*time.Millisecond)

		m.RecordValidationFailure("203.0.113.8")
		require.True(t, m.IsBlocked("203.0.113.8"))

		time.Sleep(80 * time.Millisecond)
		require.False(t, m.IsBlocked("203.0.113.8"))
	})
}

func TestRateLimitMiddlewareHandler(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("blocked client receives 429 LOCKED_OUT", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 1, time.Minute, 5*time.Minute)
		m.RecordValidationFailure("203.0.113.10")

		handler := m.Handler(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		req.RemoteAddr = "203.0.113.10:41000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))

		resp := decodeLimited(t, rec)
		require.False(t, resp.Success)
		require.Equal(t, "LOCKED_OUT", resp.Error.Code)
	})

	t.Run("exhausted bucket receives 429 RATE_LIMITED", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(2, 10, time.Minute, 5*time.Minute)
		handler := m.Handler(okHandler)

		var last *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
			req.RemoteAddr = "203.0.113.11:41000"
			last = httptest.NewRecorder()
			handler.ServeHTTP(last, req)
		}

		require.Equal(t, http.StatusTooManyRequests, last.Code)

		resp := decodeLimited(t, last)
		require.Equal(t, "RATE_LIMITED", resp.Error.Code)
	})

	t.Run("forbidden responses count toward lockout", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 2, time.Minute, 5*time.Minute)
		forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		handler := m.Handler(forbidden)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
			req.RemoteAddr = "203.0.113.12:41000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusForbidden, rec.Code)
		}

		require.True(t, m.IsBlocked("203.0.113.12"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		req.RemoteAddr = "203.0.113.12:41000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("successful responses do not count toward lockout", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 1, time.Minute, 5*time.Minute)
		handler := m.Handler(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		req.RemoteAddr = "203.0.113.13:41000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, m.IsBlocked("203.0.113.13"))
	})

	t.Run("thumbnail path bypasses limiting", func(t *testing.T) {
		t.Parallel()

		m := NewRateLimitMiddleware(300, 1, time.Minute, 5*time.Minute)
		m.RecordValidationFailure("203.0.113.14")
		require.True(t, m.IsBlocked("203.0.113.14"))

		handler := m.Handler(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files/thumbnail?path=/pic.png", nil)
		req.RemoteAddr = "203.0.113.14:41000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "10.0.0.1:5000",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.4, 10.0.0.1",
				"X-Real-IP":       "198.51.100.9",
			},
			want: "198.51.100.4",
		},
		{
			name:       "x-real-ip when no forwarded header",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "remote addr host fallback",
			remoteAddr: "198.51.100.20:6000",
			want:       "198.51.100.20",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "198.51.100.21",
			want:       "198.51.100.21",
		},
		{
			name:       "empty remote addr",
			remoteAddr: "",
			want:       "unknown",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
			req.RemoteAddr = tc.remoteAddr
			for key, value := range tc.headers {
				req.Header.Set(key, value)
			}

			require.Equal(t, tc.want, ExtractClientIP(req))
		})
	}
}
