package storm

import (
	"testing"

	"main/internal/schema"
)

func testThresholds() Thresholds {
	return Thresholds{
		WarmDrawdownPct:  -2,
		StormDrawdownPct: -5,
		HaltDrawdownPct:  -10,
		WarmLatencyUs:    1_000,
		StormLatencyUs:   5_000,
		HaltLatencyUs:    20_000,
		StormFeedGapSec:  3,
	}
}

func TestDrawdownSeverityLevels(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	cases := []struct {
		drawdown float64
		want     schema.StormSeverity
	}{
		{0, schema.StormNormal},
		{-1.999, schema.StormNormal},
		{-2, schema.StormWarm},
		{-4.999, schema.StormWarm},
		{-5, schema.StormStorm},
		{-10.001, schema.StormHalt},
		{-10, schema.StormHalt},
	}
	for _, tc := range cases {
		if got := g.Update(tc.drawdown, 0, 0); got != tc.want {
			t.Fatalf("drawdown %.3f: got %v want %v", tc.drawdown, got, tc.want)
		}
	}
}

func TestMaxSeverityWins(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	// Warm drawdown plus halt latency: latency wins.
	if got := g.Update(-2, 25_000, 0); got != schema.StormHalt {
		t.Fatalf("got %v want HALT", got)
	}
	// Feed gap alone caps out at STORM.
	if got := g.Update(0, 0, 10); got != schema.StormStorm {
		t.Fatalf("feed gap: got %v want STORM", got)
	}
	// Halt drawdown beats the feed gap's storm level.
	if got := g.Update(-11, 0, 10); got != schema.StormHalt {
		t.Fatalf("got %v want HALT", got)
	}
}

func TestAutoRecovery(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	g.Update(-11, 0, 0)
	if g.IsSafe() {
		t.Fatal("IsSafe during HALT")
	}
	if got := g.Update(0, 0, 0); got != schema.StormNormal {
		t.Fatalf("all-clear update: got %v want NORMAL", got)
	}
	if !g.IsSafe() {
		t.Fatal("not safe after recovery")
	}
}

func TestTriggerHaltAndRecovery(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	g.TriggerHalt("reconciliation mismatch")
	if g.State() != schema.StormHalt {
		t.Fatalf("state after TriggerHalt: %v", g.State())
	}
	if g.IsSafe() {
		t.Fatal("IsSafe after TriggerHalt")
	}

	// A manual halt clears like any other on the next all-clear update.
	if got := g.Update(0, 0, 0); got != schema.StormNormal {
		t.Fatalf("update after manual halt: got %v", got)
	}
}

func TestZeroThresholdDisablesTrigger(t *testing.T) {
	g := NewGuard(Thresholds{StormDrawdownPct: -5}, nil)

	// Latency and feed gap thresholds are unset; extreme values stay NORMAL.
	if got := g.Update(0, 1<<40, 1e9); got != schema.StormNormal {
		t.Fatalf("disabled triggers fired: %v", got)
	}
	if got := g.Update(-6, 0, 0); got != schema.StormStorm {
		t.Fatalf("enabled trigger: got %v want STORM", got)
	}
}

func TestStormStateStillAdmits(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	g.Update(-5, 0, 0)
	if g.State() != schema.StormStorm {
		t.Fatalf("state: %v", g.State())
	}
	if !g.IsSafe() {
		t.Fatal("STORM must still admit; only HALT blocks")
	}
}

func TestSetThresholds(t *testing.T) {
	g := NewGuard(testThresholds(), nil)

	if got := g.Update(-3, 0, 0); got != schema.StormWarm {
		t.Fatalf("before swap: got %v", got)
	}
	g.SetThresholds(Thresholds{HaltDrawdownPct: -3})
	if got := g.Update(-3, 0, 0); got != schema.StormHalt {
		t.Fatalf("after swap: got %v want HALT", got)
	}
}
