package state

import (
	"testing"

	"main/internal/schema"
)

func TestApplyFillNetsBuysAndSells(t *testing.T) {
	r := NewPositionReducer()

	fill := schema.Fill{
		IntentID:   1,
		StrategyID: 1,
		AccountID:  7,
		SymbolID:   3,
		Side:       schema.OrderSideBuy,
		Price:      100,
		Qty:        10,
	}
	if got := r.ApplyFill(fill); got != 10 {
		t.Fatalf("after buy: got %d want 10", got)
	}

	fill.Side = schema.OrderSideSell
	fill.Qty = 4
	if got := r.ApplyFill(fill); got != 6 {
		t.Fatalf("after partial sell: got %d want 6", got)
	}

	fill.Qty = 10
	if got := r.ApplyFill(fill); got != -4 {
		t.Fatalf("short position: got %d want -4", got)
	}
	if got := r.Position(7, 3); got != -4 {
		t.Fatalf("Position: got %d want -4", got)
	}
}

func TestPositionsIsolatedByAccountAndSymbol(t *testing.T) {
	r := NewPositionReducer()

	r.ApplyFill(schema.Fill{AccountID: 1, SymbolID: 1, Side: schema.OrderSideBuy, Qty: 5})
	r.ApplyFill(schema.Fill{AccountID: 1, SymbolID: 2, Side: schema.OrderSideBuy, Qty: 7})
	r.ApplyFill(schema.Fill{AccountID: 2, SymbolID: 1, Side: schema.OrderSideSell, Qty: 3})

	if got := r.Position(1, 1); got != 5 {
		t.Fatalf("account 1 symbol 1: %d", got)
	}
	if got := r.Position(1, 2); got != 7 {
		t.Fatalf("account 1 symbol 2: %d", got)
	}
	if got := r.Position(2, 1); got != -3 {
		t.Fatalf("account 2 symbol 1: %d", got)
	}
	if got := r.Count(); got != 3 {
		t.Fatalf("count: %d", got)
	}
}
