package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))

	var rl *RateLimiter
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	rl.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	require.NotNil(t, rl)
	clock := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	rl.clockNow = func() time.Time { return clock }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "clients have independent buckets")

	clock = clock.Add(time.Second)
	assert.True(t, rl.allow("a"), "one token refills per second at 60 rpm")
}

func TestRateLimiter_PrunesIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	clock := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	rl.clockNow = func() time.Time { return clock }

	rl.allow("a")
	rl.allow("b")
	clock = clock.Add(visitorIdleTTL + time.Second)
	rl.allow("c")

	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "c")
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", clientID(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientID(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientID(req))
}
