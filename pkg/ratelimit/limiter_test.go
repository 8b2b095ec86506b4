package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute, 100)

	for i := 0; i < 3; i++ {
		d := l.Allow("10.0.0.1")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if d.Limit != 3 {
			t.Errorf("Limit = %d, want 3", d.Limit)
		}
		if d.Remaining != 3-(i+1) {
			t.Errorf("Remaining = %d, want %d", d.Remaining, 3-(i+1))
		}
	}
}

func TestLimiter_DeniesOverLimit(t *testing.T) {
	l := NewLimiter(2, time.Minute, 100)

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	d := l.Allow("10.0.0.1")

	if d.Allowed {
		t.Fatal("third request should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
	if d.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", d.RetryAfter)
	}
	if d.ResetAt.Before(time.Now()) {
		t.Error("ResetAt should be in the future")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute, 100)

	if !l.Allow("10.0.0.1").Allowed {
		t.Fatal("first key should be allowed")
	}
	if !l.Allow("10.0.0.2").Allowed {
		t.Fatal("second key should be allowed independently")
	}
	if l.Allow("10.0.0.1").Allowed {
		t.Fatal("first key should now be over its limit")
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond, 100)

	if !l.Allow("10.0.0.1").Allowed {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("10.0.0.1").Allowed {
		t.Fatal("second request inside the window should be denied")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.Allow("10.0.0.1").Allowed {
		t.Fatal("request after the window slides should be allowed")
	}
}

func TestLimiter_MaxKeysEvictsLeastRecentlySeen(t *testing.T) {
	l := NewLimiter(10, time.Minute, 3)

	l.Allow("a")
	time.Sleep(time.Millisecond)
	l.Allow("b")
	time.Sleep(time.Millisecond)
	l.Allow("c")
	time.Sleep(time.Millisecond)
	l.Allow("d") // evicts a

	if got := l.KeyCount(); got != 3 {
		t.Errorf("KeyCount = %d, want 3", got)
	}
	l.mu.Lock()
	_, hasA := l.entries["a"]
	_, hasD := l.entries["d"]
	l.mu.Unlock()
	if hasA {
		t.Error("oldest key should have been evicted")
	}
	if !hasD {
		t.Error("newest key must be present")
	}
}

func TestLimiter_CleanupExpired(t *testing.T) {
	l := NewLimiter(10, time.Minute, 100)
	l.Allow("stale")
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	l.Allow("fresh")

	removed := l.CleanupExpired(cutoff)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := l.KeyCount(); got != 1 {
		t.Errorf("KeyCount = %d, want 1", got)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(1000, time.Minute, 1000)

	var wg sync.WaitGroup
	allowed := make([]int, 8)
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if l.Allow(fmt.Sprintf("ip-%d", n)).Allowed {
					allowed[n]++
				}
			}
		}(p)
	}
	wg.Wait()

	for n, count := range allowed {
		if count != 50 {
			t.Errorf("worker %d: allowed = %d, want 50", n, count)
		}
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0, 0)
	if l.limit != 100 || l.window != time.Minute || l.maxKeys != 10000 {
		t.Errorf("defaults not applied: limit=%d window=%v maxKeys=%d", l.limit, l.window, l.maxKeys)
	}
}
