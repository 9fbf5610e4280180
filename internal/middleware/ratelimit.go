package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-file-manager/internal/model"
)

type clientState struct {
	limiter      *rate.Limiter
	failures     []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// RateLimitMiddleware throttles per-client request volume and temporarily
// locks out clients that accumulate repeated validation failures (a pattern
// typical of automated traversal probing).
type RateLimitMiddleware struct {
	generalRPM       int
	lockoutThreshold int
	lockoutWindow    time.Duration
	lockoutCooldown  time.Duration
	mu               sync.Mutex
	clients          map[string]*clientState
}

func NewRateLimitMiddleware(generalRPM int, lockoutThreshold int, lockoutWindow time.Duration, lockoutCooldown time.Duration) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = 300
	}
	if lockoutThreshold <= 0 {
		lockoutThreshold = 10
	}
	if lockoutWindow <= 0 {
		lockoutWindow = time.Minute
	}
	if lockoutCooldown <= 0 {
		lockoutCooldown = 5 * time.Minute
	}

	return &RateLimitMiddleware{
		generalRPM:       generalRPM,
		lockoutThreshold: lockoutThreshold,
		lockoutWindow:    lockoutWindow,
		lockoutCooldown:  lockoutCooldown,
		clients:          map[string]*clientState{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(strings.ToLower(r.URL.Path), "/api/v1/files/thumbnail") {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := ExtractClientIP(r)
		state := m.getState(clientIP)

		m.mu.Lock()
		blocked := time.Now().Before(state.blockedUntil)
		m.mu.Unlock()

		if blocked {
			writeLimited(w, "LOCKED_OUT", "too many rejected requests, retry later")
			return
		}

		if !state.limiter.Allow() {
			writeLimited(w, "RATE_LIMITED", "too many requests")
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		// Repeated 403s from one client are the signature of traversal
		// probing. Count them toward the lockout.
		if recorder.status == http.StatusForbidden {
			m.RecordValidationFailure(clientIP)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RecordValidationFailure registers one rejected request for the client.
// Crossing the threshold inside the window starts the cooldown.
func (m *RateLimitMiddleware) RecordValidationFailure(clientIP string) {
	state := m.getState(clientIP)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-m.lockoutWindow)

	kept := state.failures[:0]
	for _, at := range state.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	state.failures = append(kept, now)

	if len(state.failures) >= m.lockoutThreshold {
		state.blockedUntil = now.Add(m.lockoutCooldown)
		state.failures = state.failures[:0]
	}
}

// IsBlocked reports whether the client is currently in cooldown.
func (m *RateLimitMiddleware) IsBlocked(clientIP string) bool {
	state := m.getState(clientIP)

	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Now().Before(state.blockedUntil)
}

func (m *RateLimitMiddleware) getState(clientIP string) *clientState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, exists := m.clients[clientIP]; exists {
		state.lastSeen = time.Now()
		m.gcLocked()
		return state
	}

	created := &clientState{
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM),
		lastSeen: time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, state := range m.clients {
		if state.lastSeen.Before(cutoff) && time.Now().After(state.blockedUntil) {
			delete(m.clients, ip)
		}
	}
}

func writeLimited(w http.ResponseWriter, code string, message string) {
	w.Header().Set("Retry-After", "60")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// ExtractClientIP resolves the client address, honoring common proxy
// headers.
func ExtractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
