package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ninety-nine/internal/config"
)

// fakeClock 测试用的可控时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestWindow_ResetsAfterSize(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	w := window{size: time.Second}
	assert.Equal(t, 1, w.hit(clock.Now()))
	assert.Equal(t, 2, w.hit(clock.Now()))

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 3, w.hit(clock.Now()))

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, w.hit(clock.Now()))
}

func TestAccessPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.SecurityConfig
		ip      string
		origin  string
		allowIP bool
		allowOK bool
	}{
		{
			name:    "open by default",
			cfg:     config.SecurityConfig{AllowedOrigins: []string{"*"}},
			ip:      "192.168.1.1",
			origin:  "https://anywhere.example",
			allowIP: true,
			allowOK: true,
		},
		{
			name:    "blacklisted ip",
			cfg:     config.SecurityConfig{IPBlacklist: []string{"192.168.1.2"}},
			ip:      "192.168.1.2",
			allowIP: false,
			allowOK: true,
		},
		{
			name:    "outside whitelist",
			cfg:     config.SecurityConfig{IPWhitelist: []string{" 10.0.0.1 "}},
			ip:      "10.0.0.9",
			allowIP: false,
			allowOK: true,
		},
		{
			name:    "whitelist entries are trimmed",
			cfg:     config.SecurityConfig{IPWhitelist: []string{" 10.0.0.1 ", ""}},
			ip:      "10.0.0.1",
			allowIP: true,
			allowOK: true,
		},
		{
			name:    "blacklist wins over whitelist",
			cfg:     config.SecurityConfig{IPWhitelist: []string{"10.0.0.2"}, IPBlacklist: []string{"10.0.0.2"}},
			ip:      "10.0.0.2",
			allowIP: false,
			allowOK: true,
		},
		{
			name:    "origin matched case-insensitively",
			cfg:     config.SecurityConfig{AllowedOrigins: []string{"https://Ninety-Nine.example"}},
			ip:      "10.0.0.3",
			origin:  "https://ninety-nine.example",
			allowIP: true,
			allowOK: true,
		},
		{
			name:    "scheme is part of the origin",
			cfg:     config.SecurityConfig{AllowedOrigins: []string{"https://ninety-nine.example"}},
			ip:      "10.0.0.3",
			origin:  "http://ninety-nine.example",
			allowIP: true,
			allowOK: false,
		},
		{
			name:    "native client without origin",
			cfg:     config.SecurityConfig{AllowedOrigins: []string{"https://ninety-nine.example"}},
			ip:      "10.0.0.3",
			allowIP: true,
			allowOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newAccessPolicy(tt.cfg)
			req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.allowIP, p.allowIP(tt.ip))
			assert.Equal(t, tt.allowOK, p.allowOrigin(req))
		})
	}
}

func newTestConnLimiter(perSecond, perMinute int, ban time.Duration) (*connLimiter, *fakeClock) {
	clock := newFakeClock()
	l := newConnLimiter(config.RateLimitConfig{
		MaxPerSecond: perSecond,
		MaxPerMinute: perMinute,
		BanDuration:  int(ban / time.Second),
	})
	l.now = clock.Now
	return l, clock
}

func TestConnLimiter_BanAndRecover(t *testing.T) {
	t.Parallel()

	l, clock := newTestConnLimiter(3, 100, 2*time.Second)
	for i := range 3 {
		assert.True(t, l.allow("1.1.1.1"), "handshake %d", i)
	}
	assert.False(t, l.allow("1.1.1.1"))
	assert.True(t, l.allow("2.2.2.2"), "other addresses are unaffected")

	// 封禁期间即使进入新的一秒也拒绝
	clock.Advance(time.Second)
	assert.False(t, l.allow("1.1.1.1"))

	clock.Advance(time.Second + time.Millisecond)
	assert.True(t, l.allow("1.1.1.1"))
}

func TestConnLimiter_MinuteBudget(t *testing.T) {
	t.Parallel()

	l, clock := newTestConnLimiter(100, 4, time.Second)
	for range 4 {
		assert.True(t, l.allow("10.0.0.1"))
		clock.Advance(2 * time.Second)
	}
	assert.False(t, l.allow("10.0.0.1"))
}

func TestConnLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	l, _ := newTestConnLimiter(20, 100, time.Minute)
	var wg sync.WaitGroup
	var allowed atomic.Int32
	for range 50 {
		wg.Go(func() {
			if l.allow("concurrent") {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(20), allowed.Load())
}

func TestConnLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	l, clock := newTestConnLimiter(1, 10, time.Hour)
	t.Cleanup(l.Stop)
	l.allow("1.1.1.1")
	l.allow("2.2.2.2")
	l.allow("2.2.2.2") // 被封禁一小时

	assert.Zero(t, l.cleanup(clock.Now()))
	assert.Equal(t, 1, l.cleanup(clock.Now().Add(11*time.Minute)), "banned addresses are kept")
	assert.Equal(t, 1, l.cleanup(clock.Now().Add(2*time.Hour)))
}

func TestServer_Admit(t *testing.T) {
	t.Parallel()

	build := func(cfg config.SecurityConfig) *Server {
		cfg.RateLimit = config.RateLimitConfig{MaxPerSecond: 1, MaxPerMinute: 10, BanDuration: 60}
		return &Server{policy: newAccessPolicy(cfg), connLimiter: newConnLimiter(cfg.RateLimit)}
	}
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	t.Run("rejected handshakes do not use the rate budget", func(t *testing.T) {
		t.Parallel()
		s := build(config.SecurityConfig{AllowedOrigins: []string{"https://ninety-nine.example"}})

		rej := s.admit(req("https://evil.example"), "1.1.1.1")
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusForbidden, rej.status)

		assert.Nil(t, s.admit(req("https://ninety-nine.example"), "1.1.1.1"))
		rej = s.admit(req(""), "1.1.1.1")
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusTooManyRequests, rej.status)
	})

	t.Run("maintenance comes first", func(t *testing.T) {
		t.Parallel()
		s := build(config.SecurityConfig{IPBlacklist: []string{"1.1.1.1"}})
		s.maintenanceMode = true

		rej := s.admit(req(""), "1.1.1.1")
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusServiceUnavailable, rej.status)
	})
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "direct", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{
			name:       "first forwarded hop",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.2", "X-Real-IP": "203.0.113.4"},
			want:       "203.0.113.1",
		},
		{
			name:       "real ip header",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": " 203.0.113.2 "},
			want:       "203.0.113.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
