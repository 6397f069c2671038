package ratelimit

import (
	"testing"
	"time"
)

func TestInProcessAllowsUpToMax(t *testing.T) {
	l := NewInProcess(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, retryAfter := l.Allow("1.2.3.4")
		if !allowed {
			t.Fatalf("request %d: expected allowed, got denied (retryAfter=%d)", i, retryAfter)
		}
	}
}

func TestInProcessDeniesOverMax(t *testing.T) {
	l := NewInProcess(2, time.Minute)

	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")
	allowed, retryAfter := l.Allow("1.2.3.4")

	if allowed {
		t.Fatal("expected the third request to be denied")
	}
	if retryAfter <= 0 {
		t.Errorf("expected a positive retryAfter, got %d", retryAfter)
	}
}

func TestInProcessTracksClientsIndependently(t *testing.T) {
	l := NewInProcess(1, time.Minute)

	allowedA, _ := l.Allow("1.1.1.1")
	allowedB, _ := l.Allow("2.2.2.2")

	if !allowedA || !allowedB {
		t.Error("expected distinct client IPs to get independent quotas")
	}

	deniedA, _ := l.Allow("1.1.1.1")
	if deniedA {
		t.Error("expected the second request from the same IP to be denied")
	}
}

func TestInProcessResetsAfterWindowElapses(t *testing.T) {
	l := NewInProcess(1, 10*time.Millisecond)

	allowed, _ := l.Allow("1.2.3.4")
	if !allowed {
		t.Fatal("expected the first request to be allowed")
	}

	time.Sleep(20 * time.Millisecond)

	allowed, _ = l.Allow("1.2.3.4")
	if !allowed {
		t.Error("expected the request to be allowed again once the window rolled over")
	}
}

func TestInProcessImplementsLimiter(t *testing.T) {
	var _ Limiter = NewInProcess(1, time.Second)
}
