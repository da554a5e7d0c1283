package mcp

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_DisabledIsNil(t *testing.T) {
	assert.Nil(t, newClientLimiter(RateLimitConfig{}))
	assert.Nil(t, newClientLimiter(RateLimitConfig{RPS: 1}))

	var l *clientLimiter
	assert.True(t, l.allow("ip:1.2.3.4", time.Now()))
}

func TestClientLimiter_RefillsOverTime(t *testing.T) {
	l := newClientLimiter(RateLimitConfig{RPS: 1, Burst: 2})
	now := time.Unix(0, 0)

	assert.True(t, l.allow("k", now))
	assert.True(t, l.allow("k", now))
	assert.False(t, l.allow("k", now))
	assert.True(t, l.allow("k", now.Add(time.Second)))
}

func TestClientLimiter_EvictsIdleEntries(t *testing.T) {
	l := newClientLimiter(RateLimitConfig{RPS: 100, Burst: 100, IdleTTL: time.Minute})
	start := time.Unix(0, 0)

	l.allow("stale", start)
	later := start.Add(2 * time.Minute)
	for i := 0; i < 511; i++ {
		l.allow(fmt.Sprintf("k%d", i%3), later)
	}

	assert.Equal(t, 3, l.size())
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "ip:192.0.2.1"},
		{"[::1]:80", "ip:::1"},
		{"no-port", "ip:no-port"},
		{"", "ip:unknown"},
		{":80", "ip:unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/mcp", nil)
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, clientKey(req))
		})
	}
}
