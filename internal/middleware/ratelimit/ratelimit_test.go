package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) *Limiter {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Minute})
	t.Cleanup(rl.Stop)
	return rl
}

func TestAllowUpToLimit(t *testing.T) {
	rl := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.1.2.3") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.1.2.3") {
		t.Error("request over the limit should be rejected")
	}
}

func TestClientsAreIsolated(t *testing.T) {
	rl := newTestLimiter(t, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client should have its own bucket")
	}
	if rl.ActiveClients() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", rl.ActiveClients())
	}
}

func TestRejectionsAreCounted(t *testing.T) {
	rl := newTestLimiter(t, 1)

	rl.Allow("ip")
	rl.Allow("ip")
	rl.Allow("ip")

	if m := rl.GetMetrics(); m.Rejected != 2 {
		t.Errorf("expected 2 rejections, got %d", m.Rejected)
	}
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.capacity != float64(DefaultConfig().RequestsPerMinute) {
		t.Errorf("expected default capacity %d, got %f",
			DefaultConfig().RequestsPerMinute, rl.capacity)
	}
}
