// Package gate implements the fast pre-trade gate: a handful of integer
// comparisons plus a one-byte kill switch shared across processes.
package gate

import (
	"sync/atomic"

	"main/internal/schema"
)

// FastGate rejects obviously bad orders in a bounded number of comparisons.
// Check never allocates and never blocks.
type FastGate struct {
	maxPrice schema.Price
	maxQty   schema.Quantity
	seg      *segment
	local    uint32
}

// New creates a gate with an in-process kill switch only.
func New(maxPrice schema.Price, maxQty schema.Quantity) *FastGate {
	return &FastGate{maxPrice: maxPrice, maxQty: maxQty}
}

// Open creates a gate backed by the named shared-memory kill switch.
// With create set, an existing segment is attached rather than recreated,
// so exactly one process owns Unlink at shutdown. Without create, a missing
// segment is an error: attaching after unlink must fail loudly.
func Open(name string, create bool, maxPrice schema.Price, maxQty schema.Quantity) (*FastGate, error) {
	seg, err := openSegment(name, create)
	if err != nil {
		return nil, err
	}
	return &FastGate{maxPrice: maxPrice, maxQty: maxQty, seg: seg}, nil
}

// Check validates price and quantity. The first failing check wins; the
// kill switch is checked before anything else. Codes are wire-stable:
// 1 kill switch, 2 price <= 0, 3 price > max, 5 qty <= 0, 4 qty > max.
func (g *FastGate) Check(price schema.Price, qty schema.Quantity) (bool, schema.RiskReason) {
	if g.KillSwitch() {
		return false, schema.RiskReasonKillSwitch
	}
	if price <= 0 {
		return false, schema.RiskReasonPriceZeroOrNeg
	}
	if price > g.maxPrice {
		return false, schema.RiskReasonPriceExceedsCap
	}
	if qty <= 0 {
		return false, schema.RiskReasonQtyZeroOrNeg
	}
	if qty > g.maxQty {
		return false, schema.RiskReasonQtyExceedsMax
	}
	return true, schema.RiskReasonNone
}

// SetKillSwitch flips the kill switch. With a shared segment every handle
// attached to the same name observes the write; the single-byte store is the
// only synchronization. A reader seeing a stale value for one extra check is
// acceptable, it self-corrects on the next check.
func (g *FastGate) SetKillSwitch(on bool) {
	if g.seg != nil {
		g.seg.set(on)
		return
	}
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&g.local, v)
}

// KillSwitch reports the current kill switch value.
func (g *FastGate) KillSwitch() bool {
	if g.seg != nil {
		return g.seg.get()
	}
	return atomic.LoadUint32(&g.local) != 0
}

// Close unmaps the shared segment. The segment itself stays until Unlink.
func (g *FastGate) Close() error {
	if g.seg == nil {
		return nil
	}
	return g.seg.close()
}

// Unlink removes the named segment. Handles attached before the unlink keep
// their mapping; new attach-only opens fail with ErrGateNoSegment.
func (g *FastGate) Unlink() error {
	if g.seg == nil {
		return nil
	}
	return g.seg.unlink()
}
