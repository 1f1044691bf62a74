package og

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"
)

// Breaker counts consecutive broker-call failures and opens for a cooldown
// once the threshold is reached. While open, dispatches are rejected without
// touching the broker. Any success resets the counter.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil int64
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a broker call may be attempted at the given time.
func (b *Breaker) Allow(now int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now >= b.openUntil
}

// RecordFailure counts one broker failure and opens the breaker when the
// consecutive-failure threshold is reached.
func (b *Breaker) RecordFailure(now int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.threshold > 0 && b.failures >= b.threshold {
		b.openUntil = now + int64(b.cooldown)
		b.failures = 0
		logs.Warnf("dispatch breaker open for %s after %d consecutive failures", b.cooldown, b.threshold)
	}
}

// RecordSuccess resets the failure counter and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openUntil = 0
}

// Open reports whether the breaker currently rejects dispatches.
func (b *Breaker) Open(now int64) bool {
	return !b.Allow(now)
}
