// Package storm aggregates market-health signals into a single severity
// state that the admission path checks before approving any order.
package storm

import (
	"main/internal/obs"
	"main/internal/schema"
	"sync"

	"github.com/yanun0323/logs"
)

// Thresholds configure the three signals independently.
//
// Drawdown thresholds are negative percentages; a signal triggers when the
// observed drawdown is at or below its threshold (worse = more negative).
// Latency and feed-gap thresholds trigger at or above. A zero threshold
// disables that trigger. The feed gap has a single storm-level threshold.
type Thresholds struct {
	WarmDrawdownPct  float64
	StormDrawdownPct float64
	HaltDrawdownPct  float64

	WarmLatencyUs  int64
	StormLatencyUs int64
	HaltLatencyUs  int64

	StormFeedGapSec float64
}

// Guard is the severity state machine. One instance per process, owned by
// the supervisor and passed by reference to every consumer. Update and
// TriggerHalt may race with State/IsSafe from the admission path, so the
// state field lives behind the mutex.
type Guard struct {
	mu         sync.Mutex
	thresholds Thresholds
	state      schema.StormSeverity
	metrics    *obs.Metrics
}

// NewGuard creates a guard in NORMAL state.
func NewGuard(t Thresholds, metrics *obs.Metrics) *Guard {
	return &Guard{thresholds: t, metrics: metrics}
}

// Update evaluates every signal against its thresholds and moves to the
// maximum severity any single signal triggered. HALT from one signal wins
// over lower severities from the others. Recovery is automatic: an
// all-clear update returns the guard to NORMAL, including after a manual
// halt, so callers must feed genuinely improved metrics to exit HALT.
func (g *Guard) Update(drawdownPct float64, latencyUs int64, feedGapSec float64) schema.StormSeverity {
	g.mu.Lock()
	t := g.thresholds
	g.mu.Unlock()

	severity := drawdownSeverity(drawdownPct, t)
	if s := latencySeverity(latencyUs, t); s > severity {
		severity = s
	}
	if t.StormFeedGapSec > 0 && feedGapSec >= t.StormFeedGapSec && schema.StormStorm > severity {
		severity = schema.StormStorm
	}

	g.mu.Lock()
	prev := g.state
	g.state = severity
	g.mu.Unlock()

	if severity != prev {
		g.metrics.SetStormSeverity(severity)
		logs.Warnf("storm severity %s -> %s (drawdown=%.4f latency_us=%d feed_gap_s=%.2f)",
			prev, severity, drawdownPct, latencyUs, feedGapSec)
	}
	return severity
}

// TriggerHalt forces HALT regardless of signal values. Used by the
// supervisor on reconciliation mismatch or component crash.
func (g *Guard) TriggerHalt(reason string) {
	g.mu.Lock()
	prev := g.state
	g.state = schema.StormHalt
	g.mu.Unlock()

	if prev != schema.StormHalt {
		g.metrics.SetStormSeverity(schema.StormHalt)
	}
	logs.Errorf("storm halt triggered: %s", reason)
}

// SetThresholds swaps the thresholds. Takes effect on the next Update.
func (g *Guard) SetThresholds(t Thresholds) {
	g.mu.Lock()
	g.thresholds = t
	g.mu.Unlock()
}

// State returns the current severity.
func (g *Guard) State() schema.StormSeverity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsSafe reports whether orders may be admitted.
func (g *Guard) IsSafe() bool {
	return g.State() < schema.StormHalt
}

func drawdownSeverity(v float64, t Thresholds) schema.StormSeverity {
	switch {
	case t.HaltDrawdownPct != 0 && v <= t.HaltDrawdownPct:
		return schema.StormHalt
	case t.StormDrawdownPct != 0 && v <= t.StormDrawdownPct:
		return schema.StormStorm
	case t.WarmDrawdownPct != 0 && v <= t.WarmDrawdownPct:
		return schema.StormWarm
	default:
		return schema.StormNormal
	}
}

func latencySeverity(v int64, t Thresholds) schema.StormSeverity {
	switch {
	case t.HaltLatencyUs > 0 && v >= t.HaltLatencyUs:
		return schema.StormHalt
	case t.StormLatencyUs > 0 && v >= t.StormLatencyUs:
		return schema.StormStorm
	case t.WarmLatencyUs > 0 && v >= t.WarmLatencyUs:
		return schema.StormWarm
	default:
		return schema.StormNormal
	}
}
