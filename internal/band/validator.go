// Package band rejects orders priced far from the live market mid, as a
// fat-finger and stale-model defense.
package band

import "main/internal/schema"

// BookSnapshot is the read-only view the validator needs from the LOB engine.
// MidPrice is in the same scaled-integer domain as order prices.
type BookSnapshot struct {
	MidPrice schema.Price
}

// BookSource provides book snapshots. A false ok means no reference price is
// available for the symbol; the relative band check is skipped in that case,
// because an unknown market must not itself block trading.
type BookSource interface {
	Snapshot(symbolID uint32) (BookSnapshot, bool)
}

// StrategyBand is the effective band configuration for one strategy,
// resolved once at config load.
type StrategyBand struct {
	// PriceCap is the absolute scaled-price cap.
	PriceCap schema.Price
	// HalfWidth is the allowed distance from mid: bandTicks * scaled tick size.
	HalfWidth schema.Price
}

// Validator checks intents against the absolute cap and the relative band.
type Validator struct {
	source     BookSource
	defaults   StrategyBand
	strategies map[uint32]StrategyBand
}

// NewValidator builds a validator. strategies may be nil when no per-strategy
// overrides exist.
func NewValidator(source BookSource, defaults StrategyBand, strategies map[uint32]StrategyBand) *Validator {
	return &Validator{source: source, defaults: defaults, strategies: strategies}
}

// Check validates an intent's price. Cancels always pass: they carry no
// price of their own. All arithmetic stays in the scaled-integer domain.
func (v *Validator) Check(intent schema.OrderIntent) (bool, schema.RiskReason) {
	if intent.Kind == schema.IntentCancel {
		return true, schema.RiskReasonNone
	}
	if intent.Price <= 0 {
		return false, schema.RiskReasonPriceZeroOrNeg
	}

	limits := v.defaults
	if override, ok := v.strategies[intent.StrategyID]; ok {
		limits = override
	}
	if limits.PriceCap > 0 && intent.Price > limits.PriceCap {
		return false, schema.RiskReasonPriceExceedsCap
	}

	if v.source == nil || limits.HalfWidth <= 0 {
		return true, schema.RiskReasonNone
	}
	snap, ok := v.source.Snapshot(intent.SymbolID)
	if !ok || snap.MidPrice <= 0 {
		// Fail open on this check only.
		return true, schema.RiskReasonNone
	}

	diff := int64(intent.Price) - int64(snap.MidPrice)
	if diff < 0 {
		diff = -diff
	}
	if diff > int64(limits.HalfWidth) {
		return false, schema.RiskReasonPriceOutsideBand
	}
	return true, schema.RiskReasonNone
}
