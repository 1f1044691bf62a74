package exposure

import (
	"testing"

	"main/internal/schema"
)

func newIntent(strategy uint32, price schema.Price, qty schema.Quantity) schema.OrderIntent {
	return schema.OrderIntent{
		IntentID:   1,
		StrategyID: strategy,
		AccountID:  7,
		SymbolID:   3,
		Kind:       schema.IntentNew,
		Price:      price,
		Qty:        qty,
	}
}

func TestReserveAgainstGlobalLimit(t *testing.T) {
	s := NewStore(Limits{GlobalMaxNotional: 1_000_000})

	intent := newIntent(1, 100, 5000)
	ok, code, err := s.Reserve(intent)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !ok || code != schema.RiskReasonNone {
		t.Fatalf("first reserve denied: code=%v", code)
	}
	key := Key{Account: 7, Strategy: 1, Symbol: 3}
	if got := s.Exposure(key); got != 500_000 {
		t.Fatalf("leaf exposure: got %d want 500000", got)
	}
	if got := s.GlobalExposure(); got != 500_000 {
		t.Fatalf("global exposure: got %d want 500000", got)
	}

	ok, code, err = s.Reserve(newIntent(1, 100, 6000))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok || code != schema.RiskReasonGlobalExposureLimit {
		t.Fatalf("over-limit reserve: ok=%v code=%v", ok, code)
	}
	if got := s.GlobalExposure(); got != 500_000 {
		t.Fatalf("denied reserve mutated ledger: got %d", got)
	}

	s.Release(intent)
	if got := s.GlobalExposure(); got != 0 {
		t.Fatalf("release: global exposure got %d want 0", got)
	}
	if got := s.Exposure(key); got != 0 {
		t.Fatalf("release: leaf exposure got %d want 0", got)
	}
}

func TestReserveAgainstStrategyLimit(t *testing.T) {
	s := NewStore(Limits{
		GlobalMaxNotional: 1_000_000,
		Strategy:          map[uint32]schema.Notional{1: 100_000},
	})

	ok, code, _ := s.Reserve(newIntent(1, 100, 900))
	if !ok {
		t.Fatalf("within-limit reserve denied: code=%v", code)
	}
	ok, code, _ = s.Reserve(newIntent(1, 100, 200))
	if ok || code != schema.RiskReasonStrategyExposureLimit {
		t.Fatalf("strategy over-limit: ok=%v code=%v", ok, code)
	}

	// Another strategy is unaffected by strategy 1's cap.
	ok, code, _ = s.Reserve(newIntent(2, 100, 200))
	if !ok {
		t.Fatalf("uncapped strategy denied: code=%v", code)
	}
}

func TestCancelSkipsReservation(t *testing.T) {
	s := NewStore(Limits{GlobalMaxNotional: 100})

	cancel := newIntent(1, 1_000_000, 1_000_000)
	cancel.Kind = schema.IntentCancel
	ok, code, err := s.Reserve(cancel)
	if err != nil || !ok || code != schema.RiskReasonNone {
		t.Fatalf("cancel reserve: ok=%v code=%v err=%v", ok, code, err)
	}
	if got := s.GlobalExposure(); got != 0 {
		t.Fatalf("cancel reserved notional: %d", got)
	}

	s.Release(cancel)
	if got := s.GlobalExposure(); got != 0 {
		t.Fatalf("cancel release mutated ledger: %d", got)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	s := NewStore(Limits{GlobalMaxNotional: 1_000_000})

	intent := newIntent(1, 100, 10)
	if ok, _, _ := s.Reserve(intent); !ok {
		t.Fatal("reserve denied")
	}
	s.Release(intent)
	s.Release(intent)
	if got := s.GlobalExposure(); got != 0 {
		t.Fatalf("double release went negative-or-stuck: %d", got)
	}
}

func TestCardinalityEvictsZeroLeavesFirst(t *testing.T) {
	s := NewStore(Limits{GlobalMaxNotional: 1_000_000_000, MaxEntries: 2})

	a := newIntent(1, 10, 10)
	b := newIntent(2, 10, 10)
	if ok, _, _ := s.Reserve(a); !ok {
		t.Fatal("reserve a denied")
	}
	if ok, _, _ := s.Reserve(b); !ok {
		t.Fatal("reserve b denied")
	}

	// Table is full but leaf A is about to be zero; eviction must make room.
	s.Release(a)
	c := newIntent(3, 10, 10)
	ok, code, err := s.Reserve(c)
	if err != nil {
		t.Fatalf("reserve after eviction: %v", err)
	}
	if !ok {
		t.Fatalf("reserve after eviction denied: code=%v", code)
	}
	if got := s.Entries(); got != 2 {
		t.Fatalf("entries after eviction: got %d want 2", got)
	}

	// No zero leaves left: the fault must surface loudly.
	d := newIntent(4, 10, 10)
	ok, code, err = s.Reserve(d)
	if ok {
		t.Fatal("reserve beyond cardinality approved")
	}
	if code != schema.RiskReasonExposureCardinality {
		t.Fatalf("cardinality code: got %v", code)
	}
	if err == nil {
		t.Fatal("cardinality fault returned nil error")
	}
}

func TestSetLimitsAppliesToNextReserve(t *testing.T) {
	s := NewStore(Limits{GlobalMaxNotional: 100})

	if ok, _, _ := s.Reserve(newIntent(1, 100, 10)); ok {
		t.Fatal("reserve above initial limit approved")
	}
	s.SetLimits(Limits{GlobalMaxNotional: 10_000})
	if ok, code, _ := s.Reserve(newIntent(1, 100, 10)); !ok {
		t.Fatalf("reserve after limit raise denied: code=%v", code)
	}
}
