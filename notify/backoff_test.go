package notify

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for n, w := range want {
		if got := b.Delay(n); got != w {
			t.Errorf("Delay(%d) = %v, want %v", n, got, w)
		}
	}
	if got := b.Delay(1000); got != 30*time.Second {
		t.Errorf("Delay(1000) = %v", got)
	}
}

func TestBackoffNextAndReset(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)

	for i, w := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond} {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: got %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != 3 {
		t.Errorf("attempts = %d", b.Attempts())
	}

	b.Reset()
	if b.Attempts() != 0 || b.Next() != 100*time.Millisecond {
		t.Error("reset should restart from the base delay")
	}
}

func TestNewBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Base != DefaultBaseDelay || b.Max != DefaultMaxDelay {
		t.Errorf("defaults = %v/%v", b.Base, b.Max)
	}

	b = NewBackoff(time.Minute, time.Second)
	if b.Max != time.Minute {
		t.Errorf("max below base should be raised, got %v", b.Max)
	}
}

func TestBackoffFirstFailureWaitsBase(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)

	// cold start and after a successful open behave the same
	if got := b.Next(); got != time.Second {
		t.Errorf("first failure on cold start waits %v, want 1s", got)
	}
	b.Next()
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("first failure after reset waits %v, want 1s", got)
	}
}
