package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := &rateLimiter{limit: 2, clients: make(map[string]*clientInfo), stopCleanup: make(chan struct{})}
	metrics := &securityMetrics{}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if !rl.allowAt("10.0.0.1", now, metrics) || !rl.allowAt("10.0.0.1", now.Add(time.Second), metrics) {
		t.Fatal("first two requests should pass")
	}
	if rl.allowAt("10.0.0.1", now.Add(2*time.Second), metrics) {
		t.Fatal("third request inside the window should be limited")
	}
	if !rl.allowAt("10.0.0.2", now.Add(2*time.Second), metrics) {
		t.Fatal("other clients are counted separately")
	}
	if !rl.allowAt("10.0.0.1", now.Add(61*time.Second), metrics) {
		t.Fatal("a new window should reset the count")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rateLimitHits=%d, want 1", metrics.rateLimitHits)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := &rateLimiter{limit: 5, clients: make(map[string]*clientInfo), stopCleanup: make(chan struct{})}
	now := time.Now()
	rl.allowAt("10.0.0.1", now.Add(-time.Hour), nil)
	rl.allowAt("10.0.0.2", now, nil)

	rl.cleanupStaleEntries(now)

	if got := rl.activeClients(); got != 1 {
		t.Fatalf("activeClients=%d, want 1", got)
	}
}
