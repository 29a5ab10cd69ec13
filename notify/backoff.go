package notify

import "time"

const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
)

// Backoff computes reconnect delays: base, 2*base, 4*base ... capped at
// Max. The attempt counter has no upper bound and is cleared by Reset.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	attempts int
}

func NewBackoff(base, maxDelay time.Duration) *Backoff {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if maxDelay < base {
		maxDelay = base
	}
	return &Backoff{Base: base, Max: maxDelay}
}

// Delay returns min(Base * 2^n, Max) without overflowing for large n.
func (b *Backoff) Delay(n int) time.Duration {
	d := b.Base
	for i := 0; i < n; i++ {
		if d > b.Max/2 {
			return b.Max
		}
		d *= 2
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Next returns the delay for the current attempt and counts it. The
// sequence is zero-based: the first failure since a Reset (or since a cold
// start) waits Base, the Nth waits min(Base*2^(N-1), Max).
func (b *Backoff) Next() time.Duration {
	d := b.Delay(b.attempts)
	b.attempts++
	return d
}

// Reset starts the sequence over from Base.
func (b *Backoff) Reset() {
	b.attempts = 0
}

// Attempts is the number of consecutive failures since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}
