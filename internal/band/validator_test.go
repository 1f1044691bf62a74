package band

import (
	"testing"

	"main/internal/schema"
)

func newBandIntent(strategy uint32, price schema.Price) schema.OrderIntent {
	return schema.OrderIntent{
		IntentID:   1,
		StrategyID: strategy,
		SymbolID:   9,
		Kind:       schema.IntentNew,
		Price:      price,
		Qty:        10,
	}
}

func TestBandEdges(t *testing.T) {
	books := NewMidCache()
	books.SetMid(9, 10_000)
	v := NewValidator(books, StrategyBand{PriceCap: 100_000, HalfWidth: 50}, nil)

	cases := []struct {
		name  string
		price schema.Price
		ok    bool
		code  schema.RiskReason
	}{
		{"at mid", 10_000, true, schema.RiskReasonNone},
		{"upper edge inclusive", 10_050, true, schema.RiskReasonNone},
		{"lower edge inclusive", 9_950, true, schema.RiskReasonNone},
		{"one unit above band", 10_051, false, schema.RiskReasonPriceOutsideBand},
		{"one unit below band", 9_949, false, schema.RiskReasonPriceOutsideBand},
		{"zero price", 0, false, schema.RiskReasonPriceZeroOrNeg},
		{"above absolute cap", 100_001, false, schema.RiskReasonPriceExceedsCap},
	}
	for _, tc := range cases {
		ok, code := v.Check(newBandIntent(1, tc.price))
		if ok != tc.ok || code != tc.code {
			t.Fatalf("%s: got ok=%v code=%v want ok=%v code=%v", tc.name, ok, code, tc.ok, tc.code)
		}
	}
}

func TestFailOpenWithoutSnapshot(t *testing.T) {
	books := NewMidCache()
	v := NewValidator(books, StrategyBand{PriceCap: 100_000, HalfWidth: 50}, nil)

	// No mid for the symbol: the relative check is skipped, the cap is not.
	if ok, code := v.Check(newBandIntent(1, 99_999)); !ok {
		t.Fatalf("missing snapshot blocked order: code=%v", code)
	}
	if ok, code := v.Check(newBandIntent(1, 100_001)); ok || code != schema.RiskReasonPriceExceedsCap {
		t.Fatalf("cap skipped with missing snapshot: ok=%v code=%v", ok, code)
	}

	// Publishing a mid re-arms the band.
	books.SetMid(9, 10_000)
	if ok, code := v.Check(newBandIntent(1, 99_999)); ok || code != schema.RiskReasonPriceOutsideBand {
		t.Fatalf("band not re-armed: ok=%v code=%v", ok, code)
	}

	// Clearing the mid fails open again.
	books.SetMid(9, 0)
	if ok, _ := v.Check(newBandIntent(1, 99_999)); !ok {
		t.Fatal("cleared mid blocked order")
	}
}

func TestStrategyOverrideReplacesDefaults(t *testing.T) {
	books := NewMidCache()
	books.SetMid(9, 10_000)
	v := NewValidator(books,
		StrategyBand{PriceCap: 100_000, HalfWidth: 50},
		map[uint32]StrategyBand{2: {PriceCap: 20_000, HalfWidth: 500}})

	// Strategy 2 uses the wider band and the tighter cap.
	if ok, code := v.Check(newBandIntent(2, 10_400)); !ok {
		t.Fatalf("override band rejected: code=%v", code)
	}
	if ok, code := v.Check(newBandIntent(2, 20_001)); ok || code != schema.RiskReasonPriceExceedsCap {
		t.Fatalf("override cap: ok=%v code=%v", ok, code)
	}
	// Strategy 1 keeps the defaults.
	if ok, code := v.Check(newBandIntent(1, 10_400)); ok || code != schema.RiskReasonPriceOutsideBand {
		t.Fatalf("default band: ok=%v code=%v", ok, code)
	}
}

func TestCancelBypassesBand(t *testing.T) {
	books := NewMidCache()
	books.SetMid(9, 10_000)
	v := NewValidator(books, StrategyBand{PriceCap: 100, HalfWidth: 1}, nil)

	cancel := newBandIntent(1, 0)
	cancel.Kind = schema.IntentCancel
	if ok, code := v.Check(cancel); !ok || code != schema.RiskReasonNone {
		t.Fatalf("cancel blocked: ok=%v code=%v", ok, code)
	}
}

func TestZeroHalfWidthDisablesBand(t *testing.T) {
	books := NewMidCache()
	books.SetMid(9, 10_000)
	v := NewValidator(books, StrategyBand{PriceCap: 100_000}, nil)

	if ok, code := v.Check(newBandIntent(1, 99_999)); !ok {
		t.Fatalf("disabled band rejected: code=%v", code)
	}
}
