package og

import "time"

// Verdict is the rate limiter's answer for one dispatch attempt.
type Verdict uint8

const (
	VerdictOK Verdict = iota
	VerdictThrottle
	VerdictReject
)

// WindowLimiter counts dispatches inside a sliding time window. At the hard
// cap the dispatch is rejected outright (dropped, never queued); at the soft
// cap it still goes out but raises a throttling signal for upstream
// strategies. Only the adapter's consumer goroutine calls Admit.
type WindowLimiter struct {
	window  time.Duration
	softCap int
	hardCap int
	stamps  []int64
}

// NewWindowLimiter creates a limiter. A zero or negative hardCap disables
// rejection; softCap <= 0 disables throttling signals.
func NewWindowLimiter(window time.Duration, softCap, hardCap int) *WindowLimiter {
	return &WindowLimiter{
		window:  window,
		softCap: softCap,
		hardCap: hardCap,
	}
}

// Admit evicts entries older than the window, then decides. A rejected
// dispatch is not recorded: it never reached the broker.
func (l *WindowLimiter) Admit(now int64) Verdict {
	l.evict(now)
	if l.hardCap > 0 && len(l.stamps) >= l.hardCap {
		return VerdictReject
	}
	l.stamps = append(l.stamps, now)
	if l.softCap > 0 && len(l.stamps) >= l.softCap {
		return VerdictThrottle
	}
	return VerdictOK
}

// InWindow reports the current dispatch count inside the window.
func (l *WindowLimiter) InWindow(now int64) int {
	l.evict(now)
	return len(l.stamps)
}

func (l *WindowLimiter) evict(now int64) {
	cutoff := now - int64(l.window)
	idx := 0
	for idx < len(l.stamps) && l.stamps[idx] <= cutoff {
		idx++
	}
	if idx > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
	}
}
