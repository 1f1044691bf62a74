// Package exposure tracks reserved notional per (account, strategy, symbol)
// and enforces per-strategy and global caps inside one short critical section.
package exposure

import (
	"main/internal/schema"
	"main/pkg/exception"
	"sync"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Key identifies one ledger leaf.
type Key struct {
	Account  uint32
	Strategy uint32
	Symbol   uint32
}

// Limits are loaded from configuration. Reloads swap the whole value via
// SetLimits; individual fields are never mutated in place.
type Limits struct {
	// GlobalMaxNotional caps the running total across all leaves. 0 = unlimited.
	GlobalMaxNotional schema.Notional
	// MaxEntries bounds the number of tracked leaves. 0 = unlimited.
	MaxEntries int
	// Strategy maps strategy id to its per-symbol notional cap. 0 = unlimited.
	Strategy map[uint32]schema.Notional
}

// Store is the notional ledger. Reservations arrive from the admission
// consumer while releases arrive from whatever goroutine handles broker
// confirmations, so every access goes through the mutex.
type Store struct {
	mu     sync.Mutex
	limits Limits
	leaves map[Key]schema.Notional
	global schema.Notional
}

// NewStore creates an empty ledger with the given limits.
func NewStore(limits Limits) *Store {
	return &Store{
		limits: limits,
		leaves: make(map[Key]schema.Notional),
	}
}

// SetLimits swaps the limits without touching current reservations.
func (s *Store) SetLimits(limits Limits) {
	s.mu.Lock()
	s.limits = limits
	s.mu.Unlock()
}

// Reserve runs the exposure checks for an intent and commits the reservation
// when approved. The returned error is non-nil only for the cardinality
// fault, which callers must log at elevated severity.
func (s *Store) Reserve(intent schema.OrderIntent) (bool, schema.RiskReason, error) {
	return s.ReserveParts(intent.AccountID, intent.StrategyID, intent.SymbolID, intent.Price, intent.Qty, intent.Kind)
}

// ReserveParts is the typed fast path: primitive fields, no intent value.
func (s *Store) ReserveParts(account, strategy, symbol uint32, price schema.Price, qty schema.Quantity, kind schema.IntentKind) (bool, schema.RiskReason, error) {
	if kind == schema.IntentCancel {
		return true, schema.RiskReasonNone, nil
	}

	notional, overflow := mulNotional(price, qty)
	if overflow {
		return false, schema.RiskReasonGlobalExposureLimit, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limits.GlobalMaxNotional > 0 && s.global+notional > s.limits.GlobalMaxNotional {
		return false, schema.RiskReasonGlobalExposureLimit, nil
	}

	key := Key{Account: account, Strategy: strategy, Symbol: symbol}
	leaf, exists := s.leaves[key]
	if limit := s.limits.Strategy[strategy]; limit > 0 && leaf+notional > limit {
		return false, schema.RiskReasonStrategyExposureLimit, nil
	}

	if !exists && s.limits.MaxEntries > 0 && len(s.leaves) >= s.limits.MaxEntries {
		s.evictZeroLeaves()
		if len(s.leaves) >= s.limits.MaxEntries {
			return false, schema.RiskReasonExposureCardinality, exception.ErrExposureCardinality
		}
	}

	s.leaves[key] = leaf + notional
	s.global += notional
	return true, schema.RiskReasonNone, nil
}

// Release returns previously reserved notional on fill, cancel or reject.
func (s *Store) Release(intent schema.OrderIntent) {
	s.ReleaseParts(intent.AccountID, intent.StrategyID, intent.SymbolID, intent.Price, intent.Qty, intent.Kind)
}

// ReleaseParts subtracts notional from the leaf and the global total,
// floored at zero. Cancels reserved nothing, so they release nothing.
func (s *Store) ReleaseParts(account, strategy, symbol uint32, price schema.Price, qty schema.Quantity, kind schema.IntentKind) {
	if kind == schema.IntentCancel {
		return
	}
	notional, overflow := mulNotional(price, qty)
	if overflow {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{Account: account, Strategy: strategy, Symbol: symbol}
	if leaf, ok := s.leaves[key]; ok {
		if notional > leaf {
			s.leaves[key] = 0
		} else {
			s.leaves[key] = leaf - notional
		}
	}
	if notional > s.global {
		s.global = 0
	} else {
		s.global -= notional
	}
}

// Exposure returns the current notional for one leaf.
func (s *Store) Exposure(key Key) schema.Notional {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaves[key]
}

// GlobalExposure returns the running total across all leaves.
func (s *Store) GlobalExposure() schema.Notional {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global
}

// Entries returns the number of tracked leaves, including zero-notional ones
// that have not been evicted yet.
func (s *Store) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leaves)
}

// evictZeroLeaves garbage-collects closed-out positions. Caller holds the lock.
// Non-zero leaves are never evicted: dropping a live exposure silently is
// worse than rejecting one order.
func (s *Store) evictZeroLeaves() {
	for key, leaf := range s.leaves {
		if leaf == 0 {
			delete(s.leaves, key)
		}
	}
}

func mulNotional(price schema.Price, qty schema.Quantity) (schema.Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return schema.Notional(p * q), false
}
