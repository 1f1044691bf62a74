package og

import (
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	now := int64(1_000_000_000)

	b.RecordFailure(now)
	b.RecordFailure(now)
	if !b.Allow(now) {
		t.Fatal("breaker open below threshold")
	}
	b.RecordFailure(now)
	if b.Allow(now) {
		t.Fatal("breaker closed at threshold")
	}

	// Still open just before the cooldown elapses, closed right after.
	if b.Allow(now + int64(time.Minute) - 1) {
		t.Fatal("breaker closed inside cooldown")
	}
	if !b.Allow(now + int64(time.Minute)) {
		t.Fatal("breaker open after cooldown")
	}
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	now := int64(1_000_000_000)

	b.RecordFailure(now)
	b.RecordFailure(now)
	b.RecordSuccess()
	b.RecordFailure(now)
	b.RecordFailure(now)
	if !b.Allow(now) {
		t.Fatal("non-consecutive failures opened breaker")
	}
	b.RecordFailure(now)
	if b.Allow(now) {
		t.Fatal("threshold reached but breaker closed")
	}

	b.RecordSuccess()
	if !b.Allow(now) {
		t.Fatal("success did not close breaker")
	}
}
